// Package server exposes the extraction workflow over HTTP: upload a case
// PDF, review and correct the extracted fields, download the generated
// document.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/config"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/fields"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/odt"
)

const odtContentType = "application/vnd.oasis.opendocument.text"

// downloadNamePattern is the only shape served by the download endpoint;
// anything else is rejected before touching the filesystem.
var downloadNamePattern = regexp.MustCompile(`^suprimento-[0-9a-f-]+\.odt$`)

// Processor runs one extraction. Implemented by extract.Service.
type Processor interface {
	Process(ctx context.Context, path string) (fields.Record, error)
}

// Server carries the HTTP state. The review data of the last processed case
// is held in memory until the next upload replaces it.
type Server struct {
	cfg       *config.Config
	processor Processor
	generator *odt.Generator
	logger    *slog.Logger

	// validatePDF is swapped out in tests; the default is a pdfcpu
	// structural validation of the uploaded file.
	validatePDF func(path string) error

	mu     sync.Mutex
	review *fields.ReviewData
}

func New(cfg *config.Config, processor Processor, generator *odt.Generator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		processor: processor,
		generator: generator,
		logger:    logger,
		validatePDF: func(path string) error {
			return api.ValidateFile(path, nil)
		},
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /review", s.handleGetReview)
	mux.HandleFunc("POST /review", s.handlePostReview)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.cors(mux)
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// cors lets the review frontend, served from another origin, talk to the API.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// handleUpload receives one multipart PDF, validates it, runs the extraction
// and stores the result for review.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		s.writeError(w, http.StatusBadRequest, "only PDF uploads are accepted")
		return
	}

	path := filepath.Join(s.cfg.WorkDir, uuid.NewString()+".pdf")
	if err := saveUpload(path, file); err != nil {
		s.logger.Error("upload persistence failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not store the upload")
		return
	}
	defer os.Remove(path)

	if err := s.validatePDF(path); err != nil {
		s.logger.Warn("upload rejected by validation", "filename", header.Filename, "error", err)
		s.writeError(w, http.StatusUnprocessableEntity, "the file is not a readable PDF")
		return
	}

	rec, err := s.processor.Process(r.Context(), path)
	if err != nil {
		s.logger.Error("extraction failed", "filename", header.Filename, "error", err)
		s.writeError(w, http.StatusUnprocessableEntity, "the PDF could not be processed")
		return
	}

	review := rec.Review()
	s.mu.Lock()
	s.review = &review
	s.mu.Unlock()

	s.logger.Info("upload processed", "filename", header.Filename, "size", header.Size)
	s.writeJSON(w, http.StatusOK, review)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}

// handleGetReview serves the stored extraction for the review screen.
func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	review := s.review
	s.mu.Unlock()

	if review == nil {
		s.writeError(w, http.StatusNotFound, "no processed case available")
		return
	}
	s.writeJSON(w, http.StatusOK, review)
}

type reviewResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// handlePostReview accepts the reviewed fields and renders the final
// document into the work directory.
func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	var data fields.ReviewData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}

	s.mu.Lock()
	s.review = &data
	s.mu.Unlock()

	name := "suprimento-" + uuid.NewString() + ".odt"
	path := filepath.Join(s.cfg.WorkDir, name)

	out, err := os.Create(path)
	if err != nil {
		s.logger.Error("document creation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create the document")
		return
	}
	renderErr := s.generator.Render(data, out)
	closeErr := out.Close()
	if renderErr != nil || closeErr != nil {
		os.Remove(path)
		s.logger.Error("document rendering failed", "render_error", renderErr, "close_error", closeErr)
		s.writeError(w, http.StatusInternalServerError, "could not render the document")
		return
	}

	s.logger.Info("document rendered", "filename", name)
	s.writeJSON(w, http.StatusOK, reviewResponse{
		Filename: name,
		URL:      "/download/" + name,
	})
}

// handleDownload serves a previously rendered document. Only names produced
// by handlePostReview are accepted.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("filename"))
	if !downloadNamePattern.MatchString(name) {
		s.writeError(w, http.StatusBadRequest, "invalid document name")
		return
	}

	path := filepath.Join(s.cfg.WorkDir, name)
	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", odtContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("download interrupted", "filename", name, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"name":    s.cfg.ServerName,
		"version": s.cfg.Version,
	})
}
