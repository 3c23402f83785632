package server

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var embeddedPages embed.FS

// pagesFS roots the server page templates at templates/ so the template
// engine addresses them by bare name.
func pagesFS() fs.FS {
	sub, err := fs.Sub(embeddedPages, "templates")
	if err != nil {
		panic("server: embedded templates missing: " + err.Error())
	}
	return sub
}
