package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/maauso/mediajobs-api/internal/job"
	"github.com/maauso/mediajobs-api/internal/media"
	"github.com/maauso/mediajobs-api/internal/upload"
)

// Defaults applied by NewHandlers.
const (
	DefaultRequestTimeout     = 5 * time.Minute
	DefaultMaxUploadBytes     = 2 << 30
	DefaultMaxFormMemoryBytes = 32 << 20
)

// outputContentType is the media type of every job result.
const outputContentType = "video/mp4"

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service *job.Service
	logger  *slog.Logger

	requestTimeout     time.Duration
	maxUploadBytes     int64
	maxFormMemoryBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithRequestTimeout bounds the processing time of a single job request.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *Handlers) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// WithUploadLimits sets the maximum request body size and the part of a
// multipart form kept in memory before spilling to disk.
func WithUploadLimits(maxBytes, maxMemory int64) HandlerOption {
	return func(h *Handlers) {
		if maxBytes > 0 {
			h.maxUploadBytes = maxBytes
		}
		if maxMemory > 0 {
			h.maxFormMemoryBytes = maxMemory
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		logger:             logger,
		requestTimeout:     DefaultRequestTimeout,
		maxUploadBytes:     DefaultMaxUploadBytes,
		maxFormMemoryBytes: DefaultMaxFormMemoryBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Home handles GET /api/home requests.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HomeResponse{Message: "Hello World"})
}

// AddVoiceover handles POST /api/add-voiceover requests.
func (h *Handlers) AddVoiceover(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	req, err := upload.ParseVoiceoverForm(form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.service.AddVoiceover(ctx, req, h.deliver(w, r)); err != nil {
		h.fail(w, r, err)
	}
}

// AddTextOverlay handles POST /api/add-text-overlay requests.
func (h *Handlers) AddTextOverlay(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	req, err := upload.ParseTextOverlayForm(form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.service.AddTextOverlay(ctx, req, h.deliver(w, r)); err != nil {
		h.fail(w, r, err)
	}
}

// parseForm reads the multipart body. A request that is not multipart yields
// a nil form so that field validation reports what is missing.
func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	err := r.ParseMultipartForm(h.maxFormMemoryBytes)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return r.MultipartForm, true
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return nil, true
	case errors.As(err, &maxErr):
		h.logger.Warn("upload too large",
			slog.String("path", r.URL.Path),
			slog.Int64("limit", maxErr.Limit),
		)
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Upload exceeds the maximum size of %d bytes", maxErr.Limit), CodeUploadTooLarge)
		return nil, false
	default:
		h.logger.Warn("failed to parse multipart form",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error(), CodeValidation)
		return nil, false
	}
}

// removeForm deletes the temporary files backing a parsed multipart form.
func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// deliver streams a finished output as an attachment. It runs while the job
// workspace still exists.
func (h *Handlers) deliver(w http.ResponseWriter, r *http.Request) job.Deliver {
	return func(out job.Output) error {
		f, err := os.Open(out.Path)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat output: %w", err)
		}

		w.Header().Set("Content-Type", outputContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.DownloadName))
		http.ServeContent(w, r, out.DownloadName, info.ModTime(), f)
		return nil
	}
}

// fail logs err and writes the matching error response.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message, code := classify(err)

	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("code", code),
		slog.String("error", err.Error()),
	}
	if status < http.StatusInternalServerError {
		h.logger.Warn("request rejected", attrs...)
	} else {
		h.logger.Error("request failed", attrs...)
	}

	writeError(w, status, message, code)
}

// classify maps an error to its HTTP status, client message, and code.
func classify(err error) (status int, message, code string) {
	var (
		verr  *upload.ValidationError
		ffErr *media.FFmpegError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message, CodeValidation
	case errors.Is(err, media.ErrToolNotFound):
		return http.StatusInternalServerError, media.ErrToolNotFound.Error(), CodeToolNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Processing timed out", CodeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusInternalServerError, "Request cancelled", CodeCancelled
	case errors.As(err, &ffErr):
		return http.StatusInternalServerError, "FFmpeg error: " + ffErr.Diagnostic(), CodeToolFailed
	case errors.Is(err, media.ErrOutputMissing):
		return http.StatusInternalServerError, media.ErrOutputMissing.Error(), CodeOutputMissing
	default:
		return http.StatusInternalServerError, "Unexpected error: " + err.Error(), CodeInternal
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
