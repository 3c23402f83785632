package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html templates/partials/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle for consumers that want
// the built-in card chrome out of the box. Theme manifests address these
// files by the same paths the fallback partial map uses.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
