package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
	"github.com/matzehuels/qtikit/pkg/document"
	"github.com/matzehuels/qtikit/pkg/pipeline"
	"github.com/matzehuels/qtikit/pkg/qti"
)

// documentResponse describes a stored document.
type documentResponse struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Version    string         `json:"version"`
	Components int            `json:"components"`
	Kinds      map[string]int `json:"kinds"`
	Cached     bool           `json:"cached"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, qerrors.New(qerrors.ErrCodeInvalidInput, "document exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, qerrors.Wrap(qerrors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, qerrors.New(qerrors.ErrCodeInvalidInput, "request body is empty"))
		return
	}

	validate, _ := strconv.ParseBool(r.URL.Query().Get("validate"))
	opts := pipeline.Options{
		Source:    "request",
		Validate:  validate,
		Validator: s.opts.Validator,
		Logger:    s.logger,
	}
	if err := opts.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, hit, err := s.runner.Load(r.Context(), data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := uuid.NewString()
	if err := s.runner.Store(r.Context(), id, doc); err != nil {
		s.writeError(w, r, err)
		return
	}

	kinds := qti.CountKinds(doc.Root)
	kinds[doc.Root.ClassName()]++
	w.Header().Set("Location", "/v1/documents/"+id)
	s.writeJSON(w, http.StatusCreated, documentResponse{
		ID:         id,
		Kind:       doc.Root.ClassName(),
		Version:    doc.Version.String(),
		Components: doc.Components(),
		Kinds:      kinds,
		Cached:     hit,
	})
}

// fetch loads the document named by the route, writing a 404 when there
// is none.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (*pipeline.Document, bool) {
	id := chi.URLParam(r, "id")
	if err := qerrors.ValidateDocumentID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, r, qerrors.New(qerrors.ErrCodeDocumentNotFound, "document %s not found", id))
		return nil, false
	}
	doc, ok, err := s.runner.Fetch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if !ok {
		s.writeError(w, r, qerrors.New(qerrors.ErrCodeDocumentNotFound, "document %s not found", id))
		return nil, false
	}
	return doc, true
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.fetch(w, r)
	if !ok {
		return
	}
	compact, _ := strconv.ParseBool(r.URL.Query().Get("compact"))
	s.render(w, r, doc, pipeline.FormatXML, pipeline.Options{Formatted: s.opts.Formatted && !compact}, "application/xml")
}

func (s *Server) getStream(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.fetch(w, r)
	if !ok {
		return
	}
	etag := `"` + strconv.FormatUint(xxhash.Sum64(doc.Stream), 16) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(doc.Stream)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.fetch(w, r)
	if !ok {
		return
	}
	s.render(w, r, doc, pipeline.FormatJSON, pipeline.Options{}, "application/json")
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.fetch(w, r)
	if !ok {
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	s.render(w, r, doc, pipeline.FormatSVG, pipeline.Options{Detailed: detailed}, "image/svg+xml")
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.runner.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, doc *pipeline.Document, format string, opts pipeline.Options, contentType string) {
	opts.Formats = []string{format}
	opts.Logger = s.logger
	artifacts, _, err := s.runner.Render(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(artifacts[format])
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code     qerrors.Code `json:"code"`
	Message  string       `json:"message"`
	Problems []problem    `json:"problems,omitempty"`
}

type problem struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorCode(err)
	status := statusOf(code)
	resp := errorResponse{Code: code, Message: qerrors.UserMessage(err)}
	for _, p := range document.Problems(err) {
		resp.Problems = append(resp.Problems, problem{
			Severity: p.Severity.String(),
			Message:  p.Message,
			Line:     p.Line,
			Column:   p.Column,
		})
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, resp)
}

func errorCode(err error) qerrors.Code {
	var derr *document.Error
	switch {
	case errors.As(err, &derr):
		return derr.Code()
	case errors.Is(err, document.ErrVersionInference):
		return qerrors.ErrCodeInvalidVersion
	case errors.Is(err, document.ErrNoValidator):
		return qerrors.ErrCodeUnsupported
	}
	if code := qerrors.GetCode(err); code != "" {
		return code
	}
	return qerrors.ErrCodeInternal
}

func statusOf(code qerrors.Code) int {
	switch code {
	case qerrors.ErrCodeNotFound, qerrors.ErrCodeDocumentNotFound, qerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case qerrors.ErrCodeInternal:
		return http.StatusInternalServerError
	case qerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case qerrors.ErrCodeInvalidXML, qerrors.ErrCodeSchemaViolation, qerrors.ErrCodeInvalidFormat:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
