package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or env is nil.
	ErrNilACDFatalLogMsg = "app or env is nil"

	// ConfirmYes is the value of the confirm form field once an operator confirmed.
	ConfirmYes = "yes"
)
