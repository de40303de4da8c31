package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/dgallion1/linkpost/internal/linkedin"
	"github.com/dgallion1/linkpost/internal/newsletter"
)

var (
	//go:embed templates/*.html
	templatesFS embed.FS

	templates = sync.OnceValue(func() *template.Template {
		return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
	})
)

type author struct {
	Name     string
	LinkedIn string
	GitHub   string
}

type newsletterResult struct {
	Input   string
	HTML    template.HTML
	Sources []newsletter.Source
}

type pageData struct {
	Entity            *linkedin.UserInfo
	Result            *newsletterResult
	Error             string
	Author            author
	MaxPostLength     int
	NewsletterEnabled bool
}

func (s *Server) page() pageData {
	return pageData{
		Author: author{
			Name:     s.cfg.AuthorName,
			LinkedIn: s.cfg.AuthorLinkedIn,
			GitHub:   s.cfg.AuthorGitHub,
		},
		MaxPostLength:     s.cfg.MaxPostLength,
		NewsletterEnabled: s.deps.Newsletters != nil,
	}
}

func (s *Server) render(w http.ResponseWriter, code int, data pageData) {
	var buf bytes.Buffer
	if err := templates().ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.log.Error("render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}

// renderError shows the editor page with msg in the error banner.
func (s *Server) renderError(w http.ResponseWriter, code int, msg string) {
	data := s.page()
	data.Error = msg
	s.render(w, code, data)
}
