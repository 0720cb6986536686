// Package server exposes the daily upload and no-review reconciliation over
// HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/outreach/internal/campaign"
	"github.com/gyeh/outreach/internal/export"
	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
	"github.com/gyeh/outreach/internal/roster"
)

const maxUploadBytes = 32 << 20

// Server handles roster and no-review uploads for one campaign.
type Server struct {
	campaign        *campaign.Campaign
	defaultProvider string
	log             zerolog.Logger
	writeArchive    func(w io.Writer, stem string, batch []model.Record) error
}

// New returns a Server over c.
func New(c *campaign.Campaign, defaultProvider string, log zerolog.Logger) *Server {
	return &Server{
		campaign:        c,
		defaultProvider: defaultProvider,
		log:             log,
		writeArchive:    export.WriteArchive,
	}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/upload-no-review", s.handleNoReview)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload merges the uploaded roster, schedules today's batch and
// returns the per-provider lists as a zip.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	path, name, cleanup, err := s.receiveFile(w, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("upload rejected")
		respondError(w, http.StatusBadRequest, "a file upload is required")
		return
	}
	defer cleanup()
	s.logInput(name, path)

	res, err := roster.Read(path, s.defaultProvider, s.log)
	if err != nil {
		s.fail(w, "roster read failed", err)
		return
	}

	daily, err := s.campaign.RunDaily(r.Context(), res.Records)
	if err != nil {
		s.fail(w, "daily run failed", err)
		return
	}

	var buf bytes.Buffer
	if err := s.writeArchive(&buf, export.Stem(name), daily.Batch); err != nil {
		// The batch is already saved as sent; the run ID finds it again.
		s.log.Error().Err(err).
			Str("run_id", daily.Summary.RunID).
			Int("selected", daily.Summary.Batch.Selected).
			Msg("export failed after master was updated")
		respondError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	s.log.Info().
		Str("run_id", daily.Summary.RunID).
		Int("selected", daily.Summary.Batch.Selected).
		Int("bytes", buf.Len()).
		Msg("zip created and returned")
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ArchiveFile))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleNoReview applies an uploaded no-review feed.
func (s *Server) handleNoReview(w http.ResponseWriter, r *http.Request) {
	path, name, cleanup, err := s.receiveFile(w, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("upload rejected")
		respondError(w, http.StatusBadRequest, "a file upload is required")
		return
	}
	defer cleanup()
	s.logInput(name, path)

	feed, err := roster.ReadFeed(path)
	if err != nil {
		s.fail(w, "no-review read failed", err)
		return
	}

	res, err := s.campaign.ReconcileFeed(r.Context(), feed)
	if err != nil {
		s.fail(w, "reconcile failed", err)
		return
	}

	sum := res.Summary
	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "No review file processed successfully",
		"completed":     sum.Completed,
		"to_followup7":  sum.AdvancedToF7,
		"to_followup14": sum.AdvancedToF14,
		"unchanged":     sum.NoChange,
	})
}

// receiveFile copies the multipart "file" field to a temp file that keeps
// the upload's extension, so the roster reader can pick a format.
func (s *Server) receiveFile(w http.ResponseWriter, r *http.Request) (path, name string, cleanup func(), err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", nil, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	dir, err := os.MkdirTemp("", "outreach-upload-")
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup = func() {
		_ = os.RemoveAll(dir)
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	name = filepath.Base(header.Filename)
	path = filepath.Join(dir, "upload"+filepath.Ext(name))
	out, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		cleanup()
		return "", "", nil, fmt.Errorf("save upload: %w", err)
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("save upload: %w", err)
	}
	return path, name, cleanup, nil
}

func (s *Server) logInput(name, path string) {
	sha, err := normalize.FileHash(path)
	if err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("could not hash upload")
		return
	}
	s.log.Info().Str("file", name).Str("sha256", sha).Msg("file uploaded")
}

// fail logs err in full and answers with a generic message whose status
// depends on the failure kind.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	s.log.Error().Err(err).Int("status", status).Msg(msg)
	switch status {
	case http.StatusUnprocessableEntity:
		respondError(w, status, "the uploaded file could not be processed")
	case http.StatusServiceUnavailable:
		respondError(w, status, "the patient store is unavailable, try again later")
	default:
		respondError(w, status, "processing failed")
	}
}

// StatusFor maps a campaign error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case campaign.IsMalformed(err):
		return http.StatusUnprocessableEntity
	case campaign.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
