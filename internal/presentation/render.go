package presentation

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/kozaktomas/facefit/internal/faceapi"
)

//go:embed templates/index.html
var templateFS embed.FS

// PageData is the state the index page is rendered from.
type PageData struct {
	Phase        string
	View         string
	Loading      bool
	Error        string
	Notice       string
	Preview      string
	ServerCamera bool
	Result       *ResultView
}

// Renderer renders HTML pages. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"css": func(s string) template.CSS {
			return template.CSS(s) //nolint:gosec // values come from fixed color table and numeric widths
		},
		"previewURL": func(s string) template.URL {
			if !strings.HasPrefix(s, "data:image/") {
				return ""
			}
			return template.URL(s) //nolint:gosec // only data:image URLs built by acquisition.DataURL
		},
	}

	tmpl, err := template.New("index.html").Funcs(funcMap).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPage writes the index page. The page is rendered to a buffer first so
// a template error never produces a half-written response.
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderResult writes the results fragment for one analysis.
func (r *Renderer) RenderResult(w io.Writer, result *faceapi.AnalysisResult) error {
	view := BuildResultView(result)
	if view == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "results", view); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
