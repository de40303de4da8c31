package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/dgallion1/linkpost/internal/formatter"
	"github.com/dgallion1/linkpost/internal/linkedin"
)

// maxFormBytes limits editor markup submitted as a form or JSON body.
const maxFormBytes = 1 << 20

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		if !noSession(err) {
			s.log.Error("load session", "error", err)
		}
		http.Redirect(w, r, "/linkedin_access", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	text, truncated, err := formatter.PostText(r.PostFormValue("post"), s.cfg.MaxPostLength)
	var perr *formatter.ParseError
	if errors.As(err, &perr) {
		s.renderError(w, http.StatusBadRequest, "The post could not be read: "+perr.Error())
		return
	}
	if err != nil {
		s.log.Error("format post", "error", err)
		s.renderError(w, http.StatusInternalServerError, "The post could not be formatted.")
		return
	}
	if strings.TrimSpace(text) == "" {
		s.renderError(w, http.StatusBadRequest, "The post is empty.")
		return
	}
	if truncated {
		s.log.Info("post truncated", "subject", sess.Subject, "limit", humanize.Comma(int64(s.cfg.MaxPostLength)))
	}

	share := linkedin.NewTextShare(sess.Subject, s.cfg.LifecycleState, text)
	id, err := s.deps.LinkedIn.CreateUGCPost(r.Context(), sess.AccessToken, share)
	if errors.Is(err, linkedin.ErrUnauthorized) {
		s.dropSession(w, r, sess)
		http.Redirect(w, r, "/linkedin_access", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.log.Error("create post", "subject", sess.Subject, "error", err)
		s.renderError(w, http.StatusBadGateway, "LinkedIn did not accept the post.")
		return
	}

	s.log.Info("post created", "subject", sess.Subject, "post_id", id, "chars", utf8.RuneCountInString(text))
	http.Redirect(w, r, linkedin.PostURL(id), http.StatusSeeOther)
}

type previewResponse struct {
	Text      string `json:"text"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated"`
}

func (s *Server) preview(markup string) (previewResponse, error) {
	text, truncated, err := formatter.PostText(markup, s.cfg.MaxPostLength)
	if err != nil {
		return previewResponse{}, err
	}
	return previewResponse{Text: text, Length: utf8.RuneCountInString(text), Truncated: truncated}, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markup string `json:"markup"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.preview(req.Markup)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
