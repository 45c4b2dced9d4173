package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and headers.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a form is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// handleUpload imports a CSV or XLSX file sent as the multipart field "file".
// Rows go through the lenient path: unknown customers and projects are
// created, bad rows are reported in validation_errors.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if max := s.service.MaxFileSize(); max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("parse upload: %w", core.ErrFileTooLarge))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload %q: %w", header.Filename, err))
		return
	}

	ctx := withImportMetadata(r.Context(), r, core.SourceUpload)
	result, err := s.service.ImportFile(ctx, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleBulkImport validates a JSON list of entries against existing
// customers and projects and stores the valid ones.
func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.decodeEntries(w, r)
	if !ok {
		return
	}

	ctx := withImportMetadata(r.Context(), r, core.SourceBulk)
	result, err := s.service.ImportEntries(ctx, entries)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleValidate reports what a bulk import would reject without storing.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.decodeEntries(w, r)
	if !ok {
		return
	}

	result, err := s.service.ValidateEntries(r.Context(), entries)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeEntries(w http.ResponseWriter, r *http.Request) ([]core.TimeEntryInput, bool) {
	data, err := readBody(w, r, s.service.MaxFileSize())
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			err = fmt.Errorf("read body: %w", core.ErrFileTooLarge)
		}
		s.respondError(w, r, err)
		return nil, false
	}

	entries, err := core.DecodeEntries(data)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return entries, true
}
