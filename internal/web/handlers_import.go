package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/carcatalog/internal/core"
	"github.com/JonMunkholm/carcatalog/internal/logging"
	"github.com/JonMunkholm/carcatalog/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for boundaries and
// part headers.
const multipartOverhead = 64 << 10

// uploadField is the multipart field carrying the CSV.
const uploadField = "file"

// importFunc is core.Service.ImportFile or core.Service.PreviewFile.
type importFunc func(ctx context.Context, path, fileName string) (*core.ImportReport, error)

// handleUploadCSV imports the uploaded CSV and returns the per-row report.
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	s.handleCSV(w, r, s.service.ImportFile, "CSV import completed")
}

// handlePreviewCSV reports what an import of the uploaded CSV would do
// without writing anything.
func (s *Server) handlePreviewCSV(w http.ResponseWriter, r *http.Request) {
	s.handleCSV(w, r, s.service.PreviewFile, "CSV preview completed")
}

// handleCSV streams the file part to a temp file and hands it to run, which
// removes it.
func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request, run importFunc, message string) {
	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize+multipartOverhead {
		s.respondError(w, r, core.ErrFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, &APIError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid upload: expected multipart/form-data",
			Err:        err,
		})
		return
	}

	upload, err := s.receiveUpload(mr, maxSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Debug("upload received",
		"file", upload.name,
		"bytes", upload.size,
		"path", upload.path,
	)

	report, err := run(r.Context(), upload.path, upload.name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsHTML(r) {
		renderHTML(w, r, http.StatusOK, templates.Report(upload.name, report))
		return
	}
	writeSuccess(w, http.StatusOK, message, report)
}

// spooledUpload is a received file waiting to be imported.
type spooledUpload struct {
	name string
	path string
	size int64
}

// receiveUpload finds the file part, checks its type and copies it to the
// temp dir. Other fields are skipped.
func (s *Server) receiveUpload(mr *multipart.Reader, maxSize int64) (*spooledUpload, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, core.ErrNoFile
		}
		if err != nil {
			return nil, uploadReadError(err)
		}

		if part.FormName() != uploadField || part.FileName() == "" {
			part.Close()
			continue
		}

		defer part.Close()
		name := filepath.Base(part.FileName())
		if !isCSV(name, part.Header.Get("Content-Type")) {
			return nil, core.ErrNotCSV
		}

		path, size, err := s.spool(part, name, maxSize)
		if err != nil {
			return nil, err
		}
		return &spooledUpload{name: name, path: path, size: size}, nil
	}
}

// spool copies src to TempDir/csv-<uuid><ext>. The file is removed again
// if the copy fails or exceeds maxSize.
func (s *Server) spool(src io.Reader, name string, maxSize int64) (path string, size int64, err error) {
	dir := s.cfg.Upload.TempDir
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	path = filepath.Join(dir, "csv-"+uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	size, err = io.Copy(f, io.LimitReader(src, maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, uploadReadError(err)
	}
	if size > maxSize {
		err = core.ErrFileTooLarge
		return "", 0, err
	}
	return path, size, nil
}

// uploadReadError maps body read failures. Hitting the body cap is a size
// problem; anything else is a malformed upload.
func uploadReadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
	}
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid upload: malformed multipart body",
		Err:        err,
	}
}

// isCSV accepts a text/csv content type or a .csv extension.
func isCSV(name, contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/csv" {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
