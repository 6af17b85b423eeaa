package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages served by Renderer.Page.
const (
	PageHome  = "home"
	PageImage = "image"
	PageVideo = "video"
	PageAbout = "about"
	PageLogin = "login"
)

var pageTitles = map[string]string{
	PageHome:  "Deepfake Detection",
	PageImage: "Image Detection",
	PageVideo: "Video Detection",
	PageAbout: "About",
	PageLogin: "Sign in",
}

// PageData is the input of every page template.
type PageData struct {
	Title       string
	Page        string
	Kind        model.MediaKind
	Accept      string
	MaxUploadMB int64
	AuthEnabled bool

	State      session.State
	Generation uint64
	Filename   string
	PreviewURL string
	Error      string
	Result     *ResultView
}

// Loading reports whether an analysis is in flight for the page.
func (d PageData) Loading() bool {
	return d.State == session.StateLoading
}

// WithSnapshot fills the page state from a session snapshot.
func (d PageData) WithSnapshot(snap session.Snapshot) PageData {
	d.State = snap.State
	d.Generation = snap.Generation
	d.Filename = snap.Filename
	d.PreviewURL = snap.PreviewURL
	d.Error = snap.Error
	if snap.State == session.StateSettled && snap.Result != nil {
		// Same wire form the page script renders from /api/events.
		d.Result = ViewFromResponse(dto.FromAnalysis(snap.Result), snap.Kind)
	}
	return d
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for name := range pageTitles {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/result.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Page renders the named page with status 200.
func (r *Renderer) Page(w http.ResponseWriter, name string, data PageData) error {
	return r.Render(w, http.StatusOK, name, data)
}

// Render renders the named page with the given status. Nothing is written
// when rendering fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if data.Title == "" {
		data.Title = pageTitles[name]
	}
	data.Page = name

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and page script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
