package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// DefaultTemplates returns the embedded notification templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer holds the parsed HTML and text variant of every known template.
// Templates are parsed once so a broken template fails at startup.
type Renderer struct {
	html map[Template]*htmltemplate.Template
	text map[Template]*texttemplate.Template
}

// NewRenderer parses <name>.html and <name>.txt from fsys for every known template.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{
		html: make(map[Template]*htmltemplate.Template),
		text: make(map[Template]*texttemplate.Template),
	}
	for _, name := range []Template{TemplateCompanyCreated, TemplateCompanyUpdated} {
		h, err := htmltemplate.ParseFS(fsys, string(name)+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", name, err)
		}
		t, err := texttemplate.ParseFS(fsys, string(name)+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", name, err)
		}
		r.html[name] = h
		r.text[name] = t
	}
	return r, nil
}

// Render executes both variants of tmpl.
func (r *Renderer) Render(tmpl Template, payload Payload) (html, text string, err error) {
	h, ok := r.html[tmpl]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, tmpl)
	}

	var hb, tb bytes.Buffer
	if err := h.Execute(&hb, payload); err != nil {
		return "", "", fmt.Errorf("failed to render template %s: %w", tmpl, err)
	}
	if err := r.text[tmpl].Execute(&tb, payload); err != nil {
		return "", "", fmt.Errorf("failed to render template %s: %w", tmpl, err)
	}
	return hb.String(), tb.String(), nil
}
