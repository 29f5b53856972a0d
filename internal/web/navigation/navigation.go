// Package navigation builds the page title, active menu entry and breadcrumbs of a page.
package navigation

// Menu sections.
const (
	SectionHome      = "home"
	SectionDocuments = "documents"
	SectionProfile   = "profile"
	SectionAdmin     = "admin"
	SectionAccount   = "account"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	PageTitle     string
	ActiveSection string
	Breadcrumbs   []BreadcrumbItem
}

// NewContext starts the navigation of a page in section. Every page begins
// with a Home crumb.
func NewContext(pageTitle, section string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: section,
		Breadcrumbs:   []BreadcrumbItem{{Title: "Home", URL: "/"}},
	}
}

// Add appends a crumb. The last crumb added is the active one.
func (c *Context) Add(title, url string) *Context {
	for i := range c.Breadcrumbs {
		c.Breadcrumbs[i].Active = false
	}

	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{Title: title, URL: url, Active: true})

	return c
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
