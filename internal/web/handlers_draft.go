package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dgallion1/linkpost/internal/draft"
)

type importResponse struct {
	Title  string `json:"title"`
	Markup string `json:"markup"`
	previewResponse
}

func (s *Server) handleDraftImport(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for multipart overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !draft.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%s)", humanize.Bytes(uint64(s.cfg.MaxUploadBytes))), http.StatusRequestEntityTooLarge)
		return
	}

	d, err := draft.Import(bytes.NewReader(data), filename, draft.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if errors.Is(err, draft.ErrEmpty) {
		jsonError(w, "no text found in "+filename, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		s.log.Warn("import draft", "filename", filename, "size", humanize.Bytes(uint64(len(data))), "error", err)
		jsonError(w, "could not read "+filename+": "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	preview, err := s.preview(d.Markup)
	if err != nil {
		s.log.Error("format imported draft", "filename", filename, "error", err)
		jsonError(w, "imported draft could not be formatted", http.StatusInternalServerError)
		return
	}

	s.log.Info("draft imported", "filename", filename, "size", humanize.Bytes(uint64(len(data))), "chars", preview.Length)
	writeJSON(w, http.StatusOK, importResponse{Title: d.Title, Markup: d.Markup, previewResponse: preview})
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
