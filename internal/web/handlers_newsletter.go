package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/linkpost/internal/newsletter"
	"github.com/dgallion1/linkpost/internal/pipeline"
)

func (s *Server) handleNewsletterPage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Newsletters == nil {
		s.renderError(w, http.StatusServiceUnavailable, "Newsletter generation is not configured.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	instruction := strings.TrimSpace(r.PostFormValue("text"))

	nl, err := s.deps.Newsletters.Generate(r.Context(), instruction)
	if err != nil {
		s.log.Error("generate newsletter", "error", err)
		data := s.page()
		data.Error = "The newsletter could not be generated. Try again shortly."
		data.Result = &newsletterResult{Input: instruction}
		s.render(w, http.StatusBadGateway, data)
		return
	}

	data := s.page()
	data.Result = &newsletterResult{
		Input: instruction,
		// Rendered by goldmark with raw HTML disabled.
		HTML:    template.HTML(nl.HTML),
		Sources: nl.Sources,
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleNewsletterSubmit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Newsletters == nil {
		jsonError(w, "newsletter generation is not configured", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Instruction string `json:"instruction"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		instruction = newsletter.DefaultInstruction
	}

	job := pipeline.NewJob(instruction, ownerFrom(r.Context()))
	if err := s.deps.Newsletters.Submit(job); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": "/api/newsletter/" + job.ID,
	})
}

func (s *Server) handleNewsletterStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Newsletters == nil {
		jsonError(w, "newsletter generation is not configured", http.StatusServiceUnavailable)
		return
	}
	job := s.deps.Newsletters.GetJob(chi.URLParam(r, "jobID"))
	// Other callers' jobs look the same as missing ones.
	if job == nil || job.Owner != ownerFrom(r.Context()) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	resp := map[string]any{
		"model": s.cfg.GeminiModel,
		"stats": s.deps.Stats.Snapshot(),
	}
	if s.deps.Newsletters != nil {
		resp["queue_depth"] = s.deps.Newsletters.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
