package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/ingest"
)

// DefaultMaxUploadBytes bounds the multipart request body.
const DefaultMaxUploadBytes = 64 << 20

// Importer ingests a file from disk.
type Importer interface {
	Import(ctx context.Context, path string) (*ingest.Report, error)
}

// UploadHandler saves an uploaded journal file and imports it.
type UploadHandler struct {
	importer  Importer
	uploadDir string
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler that stores files under uploadDir.
func NewUploadHandler(importer Importer, uploadDir string) *UploadHandler {
	return &UploadHandler{
		importer:  importer,
		uploadDir: uploadDir,
		maxBytes:  DefaultMaxUploadBytes,
	}
}

// UploadResponse summarizes an import.
//
// swagger:model UploadResponse
type UploadResponse struct {
	Message    string         `json:"message"`
	Filename   string         `json:"filename"`
	Type       string         `json:"type"`
	Imported   int            `json:"imported"`
	Duplicates int            `json:"duplicates"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Report     *ingest.Report `json:"report"`
}

// ServeHTTP handles POST /api/upload.
//
// swagger:route POST /api/upload upload uploadJournal
//
// # Upload a journal file
//
// Accepts a multipart form with a single "file" field (txt, json, mp3, wav, m4a, jpg, jpeg, png).
// The extension is checked before anything is written to disk.
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Missing file, unsupported type, unreadable file or malformed JSON
//	'503':
//	  description: Offline for media input, or a store is unavailable
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "Uploaded file must be sent in the \"file\" field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	filename := filepath.Base(strings.TrimSpace(header.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "Uploaded file must have a filename.")
		return
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, err := ingest.KindOf(filename); err != nil {
		logger.WarnContext(ctx, "unsupported upload type", "filename", filename, "ext", ext)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", ext))
		return
	}

	path, err := h.save(filename, file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to save upload", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}

	report, err := h.importer.Import(ctx, path)
	if err != nil {
		h.handleImportError(w, ctx, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Message:    fmt.Sprintf("File '%s' (type: %s) imported successfully.", filename, ext),
		Filename:   filename,
		Type:       ext,
		Imported:   report.Imported(),
		Duplicates: report.Count(ingest.StatusDuplicate),
		Skipped:    report.Count(ingest.StatusSkipped),
		Failed:     report.Count(ingest.StatusFailed),
		Report:     report,
	})
}

func (h *UploadHandler) save(filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(h.uploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// handleImportError maps ingestion errors to HTTP status codes.
func (h *UploadHandler) handleImportError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "import failed", "error", err)

	switch {
	case errors.Is(err, ingest.ErrUnsupportedExtension),
		errors.Is(err, ingest.ErrUnreadableFile),
		errors.Is(err, ingest.ErrMalformedJSON):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %s", err))
	case errors.Is(err, ingest.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, "Media import requires network access")
	case errors.Is(err, ingest.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "Import failed")
	}
}
