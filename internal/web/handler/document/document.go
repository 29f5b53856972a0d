// Package document serves the document list, viewer and editor.
package document

import (
	"errors"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	docctl "github.com/docket-app/docket/internal/db/controller/document"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/editor"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// Path is the document list.
	Path = handler.RootPath + "documents"

	// TemplateList lists the documents of the user.
	TemplateList = "documents/index"
	// TemplateView shows a rendered document with its comments.
	TemplateView = "documents/view"
	// TemplateEdit is the editor.
	TemplateEdit = "documents/edit"

	// NotFoundText is shown for missing or hidden documents.
	NotFoundText = "No document here, friend!"
	// DeleteQuestion confirms removal.
	DeleteQuestion = "Are you sure? This is permanent!"
	// RemovedText is flashed after removal.
	RemovedText = "Document removed!"
	// CommentEmptyText is flashed for blank comments.
	CommentEmptyText = "Please write something first."
)

// DocPath returns the viewer path of id.
func DocPath(id string) string {
	return Path + "/" + id
}

// EditPath returns the editor path of id.
func EditPath(id string) string {
	return DocPath(id) + "/edit"
}

// AutosaveForm carries the editor contents.
type AutosaveForm struct {
	Title string `form:"title"`
	Body  string `form:"body"`
}

// Service is the document handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the document handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	auth := env.Authenticated()
	signedIn := env.SignedIn()

	app.Get(Path, auth, s.List)
	app.Post(Path, signedIn, s.Create)

	app.Get(Path+"/:id", s.View)
	app.Post(Path+"/:id/comments", signedIn, s.Comment)

	app.Get(Path+"/:id/edit", auth, s.Edit)
	app.Post(Path+"/:id/autosave", signedIn, s.Autosave)
	app.Get(Path+"/:id/status", signedIn, s.Status)
	app.Post(Path+"/:id/visibility", signedIn, s.Visibility)
	app.Get(Path+"/:id/delete", auth, s.DeleteConfirm)
	app.Post(Path+"/:id/delete", signedIn, s.Delete)

	return nil
}

func nav(title string) *navigation.Context {
	n := navigation.NewContext(title, navigation.SectionDocuments)
	n.Add("Documents", Path)

	return n
}

func notFound(c *fiber.Ctx) error {
	return handler.Placeholder(c, fiber.StatusNotFound, "Not Found", NotFoundText)
}

// load returns the document of the :id parameter. A nil document with a nil
// error means the not found page was rendered.
func (s *Service) load(c *fiber.Ctx) (*models.Document, error) {
	doc, err := docctl.GetByID(s.env.DB.WithContext(c.UserContext()), c.Params("id"))
	if errors.Is(err, docctl.ErrDocumentNotFound) {
		return nil, notFound(c)
	}

	return doc, err
}

// owned is load restricted to the signed in owner.
func (s *Service) owned(c *fiber.Ctx) (*models.Document, error) {
	doc, err := s.load(c)
	if doc == nil || err != nil {
		return nil, err
	}

	if doc.OwnerID != identity.FromCtx(c).UserID {
		return nil, notFound(c)
	}

	return doc, nil
}

// List renders the documents of the signed in user.
func (s *Service) List(c *fiber.Ctx) error {
	sess := identity.FromCtx(c)

	docs, err := docctl.ListByOwner(s.env.DB.WithContext(c.UserContext()), sess.UserID)
	if err != nil {
		return err
	}

	return handler.Page(c, TemplateList, navigation.NewContext("Documents", navigation.SectionDocuments), fiber.Map{
		"Documents": docs,
	})
}

// Create adds an untitled document and opens the editor.
func (s *Service) Create(c *fiber.Ctx) error {
	sess := identity.FromCtx(c)

	doc, err := docctl.Create(s.env.DB.WithContext(c.UserContext()), sess.UserID)
	if err != nil {
		return err
	}

	log.Info().Str("document_id", doc.ID).Uint64("user_id", sess.UserID).Msg("document created")

	return handler.SeeOther(c, EditPath(doc.ID))
}

// View renders a document for its owner, or for anyone when it is public.
func (s *Service) View(c *fiber.Ctx) error {
	doc, err := s.load(c)
	if doc == nil || err != nil {
		return err
	}

	sess := identity.FromCtx(c)
	if !doc.VisibleTo(sess.UserID) {
		return notFound(c)
	}

	order := docctl.ParseOrder(c.Query("sort"))

	comments, err := docctl.Comments(s.env.DB.WithContext(c.UserContext()), doc.ID, order)
	if err != nil {
		return err
	}

	body, err := s.env.Markdown.Render(doc.Body)
	if err != nil {
		log.Error().Err(err).Str("document_id", doc.ID).Msg("failed to render document")

		body = template.HTML(template.HTMLEscapeString(doc.Body)) //nolint:gosec
	}

	n := nav(doc.Title)
	n.Add(doc.Title, DocPath(doc.ID))

	return handler.Page(c, TemplateView, n, fiber.Map{
		"Document":   doc,
		"Body":       body,
		"Comments":   comments,
		"Order":      order,
		"Orders":     []docctl.Order{docctl.NewestFirst, docctl.OldestFirst},
		"IsOwner":    sess.Authenticated && doc.OwnerID == sess.UserID,
		"CanComment": sess.Authenticated,
	})
}

// Comment adds a comment to a visible document.
func (s *Service) Comment(c *fiber.Ctx) error {
	doc, err := s.load(c)
	if doc == nil || err != nil {
		return err
	}

	sess := identity.FromCtx(c)
	if !doc.VisibleTo(sess.UserID) {
		return notFound(c)
	}

	_, err = docctl.AddComment(s.env.DB.WithContext(c.UserContext()), doc.ID, sess.UserID, c.FormValue("body"))
	if errors.Is(err, docctl.ErrCommentEmpty) {
		flash.Error(c, CommentEmptyText)
	} else if err != nil {
		return err
	}

	return handler.SeeOther(c, DocPath(doc.ID)+"?sort="+string(docctl.ParseOrder(c.FormValue("sort"))))
}

// Edit renders the editor for the owner.
func (s *Service) Edit(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	n := nav(doc.Title)
	n.Add(doc.Title, EditPath(doc.ID))

	return handler.Page(c, TemplateEdit, n, fiber.Map{
		"Document": doc,
		"Status":   s.status(identity.FromCtx(c).UserID, doc),
		"Interval": s.env.Cfg.Timing.AutosaveDebounce.Milliseconds(),
	})
}

func (s *Service) status(userID uint64, doc *models.Document) editor.Status {
	if e, ok := s.env.Editors.Lookup(userID, doc.ID); ok {
		st := e.Status()
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = doc.UpdatedAt
		}

		return st
	}

	return editor.Status{UpdatedAt: doc.UpdatedAt}
}

// Autosave schedules a save of the editor contents and answers with the
// indicator state.
func (s *Service) Autosave(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	form := new(AutosaveForm)
	if err = c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(editor.Status{Error: err.Error()})
	}

	uid := identity.FromCtx(c).UserID
	s.env.Editors.Get(uid, doc.ID).Autosave(form.Title, form.Body)

	return c.JSON(s.status(uid, doc))
}

// Status answers with the indicator state.
func (s *Service) Status(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	return c.JSON(s.status(identity.FromCtx(c).UserID, doc))
}

// Visibility makes the document public or private right away.
func (s *Service) Visibility(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	public, err := strconv.ParseBool(c.FormValue("is_public"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid visibility")
	}

	if _, err = s.env.Commands.Dispatch(c.UserContext(), doc.ID, editor.Update{IsPublic: &public}); err != nil {
		return err
	}

	return handler.SeeOther(c, EditPath(doc.ID))
}

// DeleteConfirm asks before removing.
func (s *Service) DeleteConfirm(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	n := nav(doc.Title)
	n.Add("Delete", DocPath(doc.ID)+"/delete")

	return handler.Confirm(c, n, DeleteQuestion, DocPath(doc.ID)+"/delete", EditPath(doc.ID), nil)
}

// Delete removes the confirmed document.
func (s *Service) Delete(c *fiber.Ctx) error {
	doc, err := s.owned(c)
	if doc == nil || err != nil {
		return err
	}

	if !handler.Confirmed(c) {
		return handler.SeeOther(c, DocPath(doc.ID)+"/delete")
	}

	s.env.Editors.DiscardDocument(doc.ID)

	if _, err = s.env.Commands.Dispatch(c.UserContext(), doc.ID, editor.Remove{}); err != nil {
		return err
	}

	log.Info().Str("document_id", doc.ID).Msg("document removed")
	flash.Success(c, RemovedText)

	return handler.SeeOther(c, Path)
}
