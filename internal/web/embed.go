package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
)

// devTemplateDir is read instead of the embedded templates in dev mode.
const devTemplateDir = "./internal/web/templates"

var (
	//go:embed static/*
	embeddedStaticFiles embed.FS

	//go:embed templates/*
	embeddedTemplates embed.FS
)

// templateFS returns the page templates. Dev mode reads them from the working
// tree so edits show up on reload.
func templateFS(devMode bool) http.FileSystem {
	if devMode {
		return http.FS(os.DirFS(devTemplateDir))
	}

	return http.FS(mustSub(embeddedTemplates, "templates"))
}

// staticFS returns the embedded css and js served below /static.
func staticFS() http.FileSystem {
	return http.FS(mustSub(embeddedStaticFiles, "static"))
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}

	return sub
}
