// Package handlertest runs handlers against an in-memory database and session store.
package handlertest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/controller/usersetting"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/editor"
	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/mail"
	"github.com/docket-app/docket/internal/markdown"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	authmw "github.com/docket-app/docket/internal/web/middleware/auth"
	"github.com/docket-app/docket/internal/web/session"
)

// Views is a Views engine that writes the template name followed by the
// messages found in the data, one "Key: value" per line.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data any, _ ...string) error {
	_, _ = io.WriteString(w, name)

	m, ok := data.(fiber.Map)
	if !ok {
		return nil
	}

	for _, k := range []string{"Error", "Message", "Question", "Empty", "Subtitle", "Notice"} {
		if s, ok := m[k].(string); ok && s != "" {
			_, _ = fmt.Fprintf(w, "\n%s: %s", k, s)
		}
	}

	if f, ok := m[flash.LocalsKey].(flash.Message); ok {
		if f.Success != "" {
			_, _ = fmt.Fprintf(w, "\nFlash: %s", f.Success)
		}

		if f.Error != "" {
			_, _ = fmt.Fprintf(w, "\nFlashError: %s", f.Error)
		}
	}

	if errs, ok := m["Errors"].(handler.FieldErrors); ok {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "\nField %s: %s", k, errs[k])
		}
	}

	return nil
}

// Outbox records sent mails.
type Outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

// Send implements mail.Mailer.
func (o *Outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sent = append(o.sent, m)

	return nil
}

// Messages returns the mails sent so far.
func (o *Outbox) Messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]mail.Message(nil), o.sent...)
}

// Harness is an app with its services.
type Harness struct {
	T      *testing.T
	Env    *handler.Env
	App    *fiber.App
	DB     *gorm.DB
	Outbox *Outbox
}

// Config returns the configuration used by New. Debounce timers are long so
// tests flush explicitly.
func Config() *config.Config {
	return &config.Config{
		Title: "Docket",
		Webserver: config.Webserver{
			URL: "http://docket.test",
			Session: config.Session{
				ExpiryTime:        time.Hour,
				RoleLookupTimeout: time.Second,
			},
		},
		Auth: config.Auth{Local: config.LocalAuth{Enabled: true, AllowSignup: true}},
		Tokens: config.Tokens{
			Secret:           "test-secret",
			VerifyEmailTTL:   time.Hour,
			PasswordResetTTL: time.Hour,
		},
		Timing: config.Timing{
			SettingsDebounce:    time.Hour,
			AutosaveDebounce:    time.Hour,
			SavingClearDelay:    time.Hour,
			VerifyRedirectDelay: 1500 * time.Millisecond,
		},
	}
}

// New builds the services on an in-memory database, applies the request
// middleware chain and registers services.
func New(t *testing.T, services ...handler.Service) *Harness {
	t.Helper()

	db := dbtest.Open(t)
	cfg := Config()
	outbox := &Outbox{}

	session.Init(nil)

	store := usersetting.NewStore(db)
	panels := panel.NewRegistry(store, cfg.Timing.SettingsDebounce)
	commands := editor.NewDispatcher(editor.NewDBStore(db))
	authService := auth.NewService(db)

	env := &handler.Env{
		Cfg:       cfg,
		DB:        db,
		Auth:      authService,
		Local:     auth.NewLocalProvider(db),
		Tokens:    auth.NewTokens(cfg.Tokens.Secret, cfg.Tokens.VerifyEmailTTL, cfg.Tokens.PasswordResetTTL),
		Accounts:  mail.NewAccounts(outbox, cfg.Webserver.URL, cfg.Title),
		Panels:    panels,
		Editors:   editor.NewRegistry(commands, cfg.Timing.AutosaveDebounce, cfg.Timing.SavingClearDelay),
		Commands:  commands,
		Gate:      gdpr.NewGate(store, panels),
		Markdown:  markdown.New(),
		Recorder:  authmw.PathRecorder{Expiry: cfg.Webserver.Session.ExpiryTime},
		Validator: handler.NewValidator(),
	}

	t.Cleanup(func() {
		env.Panels.Close()
		env.Editors.Close()
	})

	app := fiber.New(fiber.Config{Views: Views{}, PassLocalsToViews: true, ErrorHandler: handler.ErrorHandler})
	app.Use(authmw.Middleware(identity.NewResolver(authService, authService, cfg.Webserver.Session.RoleLookupTimeout)))
	app.Use(flash.Middleware)
	app.Use(gdpr.Middleware(gdpr.Config{Gate: env.Gate, Render: handler.RenderConsent}))

	for _, s := range services {
		require.NoError(t, s.Init(app, env))
	}

	return &Harness{T: t, Env: env, App: app, DB: db, Outbox: outbox}
}

// Response is a finished request.
type Response struct {
	Status   int
	Location string
	Header   http.Header
	Body     string
}

// Client sends requests and keeps the cookies the app sets.
type Client struct {
	h       *Harness
	cookies map[string]string
}

// Client returns an anonymous client.
func (h *Harness) Client() *Client {
	return &Client{h: h, cookies: make(map[string]string)}
}

// LoginAs returns a client with a session of userID.
func (h *Harness) LoginAs(userID uint64) *Client {
	h.T.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(h.T, err)

	data := &session.Data{UserID: userID}
	require.NoError(h.T, data.Write(id, time.Hour))

	cl := h.Client()
	cl.cookies[session.CookieName] = id

	return cl
}

// Cookie returns the current value of a cookie.
func (cl *Client) Cookie(name string) string {
	return cl.cookies[name]
}

// Get sends a GET request.
func (cl *Client) Get(path string) *Response {
	return cl.Do(fiber.MethodGet, path, nil, nil)
}

// Post sends a form.
func (cl *Client) Post(path string, form url.Values) *Response {
	return cl.Do(fiber.MethodPost, path, form, nil)
}

// Follow requests the location of a redirect.
func (cl *Client) Follow(r *Response) *Response {
	cl.h.T.Helper()
	require.NotEmpty(cl.h.T, r.Location, "not a redirect: %d %s", r.Status, r.Body)

	return cl.Get(r.Location)
}

// Do sends a request with the client's cookies and records the cookies set.
func (cl *Client) Do(method, path string, form url.Values, header map[string]string) *Response {
	t := cl.h.T
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	for name, value := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := cl.h.App.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, c := range resp.Cookies() {
		if c.Value == "" || c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(cl.cookies, c.Name)
			continue
		}

		cl.cookies[c.Name] = c.Value
	}

	return &Response{
		Status:   resp.StatusCode,
		Location: resp.Header.Get(fiber.HeaderLocation),
		Header:   resp.Header,
		Body:     string(raw),
	}
}
