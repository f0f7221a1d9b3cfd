package api

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zafiri/cms-core/internal/content"
)

// handleListRecords returns every record in the collection as a flat JSON
// array, the shape the console's list normalizer expects.
func (s *Server) handleListRecords(col content.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.records.List(r.Context(), col.Name)
		if err != nil {
			s.logger.Error("record list failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to list records")
			return
		}

		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			out = append(out, rec.Flatten(col))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetRecord returns a single record.
func (s *Server) handleGetRecord(col content.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.records.GetByID(r.Context(), col.Name, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, content.ErrRecordNotFound) {
				writeNotFound(w, "record not found")
				return
			}
			s.logger.Error("record fetch failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to fetch record")
			return
		}
		writeJSON(w, http.StatusOK, rec.Flatten(col))
	}
}

// handleCreateRecord creates a record from a JSON or multipart body.
func (s *Server) handleCreateRecord(col content.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, uploads, err := s.decodeRecordBody(r, col)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}

		if err := col.Validate(fields, false); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		rec := &content.Record{
			Collection: col.Name,
			Fields:     fields,
		}
		if rec.Attachments, err = s.storeUploads(col, uploads); err != nil {
			s.logger.Error("upload write failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to store upload")
			return
		}

		if err := s.records.Create(r.Context(), rec); err != nil {
			s.logger.Error("record create failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to create record")
			return
		}

		s.hub.Broadcast(col.Name, "created", rec.ID)
		writeJSON(w, http.StatusCreated, rec.Flatten(col))
	}
}

// handleUpdateRecord replaces a record's fields (PUT). Attachments survive
// unless a new file is uploaded for the same field.
func (s *Server) handleUpdateRecord(col content.Collection) http.HandlerFunc {
	return s.updateRecord(col, false)
}

// handlePatchRecord applies a partial update (PATCH), as the console uses
// for quick status flips.
func (s *Server) handlePatchRecord(col content.Collection) http.HandlerFunc {
	return s.updateRecord(col, true)
}

func (s *Server) updateRecord(col content.Collection, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, uploads, err := s.decodeRecordBody(r, col)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}

		if err := col.Validate(fields, partial); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		ctx := r.Context()
		rec, err := s.records.GetByID(ctx, col.Name, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, content.ErrRecordNotFound) {
				writeNotFound(w, "record not found")
				return
			}
			s.logger.Error("record fetch failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to fetch record")
			return
		}

		if partial {
			rec.Merge(fields)
		} else {
			rec.Fields = fields
		}

		newAttachments, err := s.storeUploads(col, uploads)
		if err != nil {
			s.logger.Error("upload write failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to store upload")
			return
		}
		for name, url := range newAttachments {
			if rec.Attachments == nil {
				rec.Attachments = map[string]string{}
			}
			rec.Attachments[name] = url
		}

		if err := s.records.Update(ctx, rec); err != nil {
			s.logger.Error("record update failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to update record")
			return
		}

		s.hub.Broadcast(col.Name, "updated", rec.ID)
		writeJSON(w, http.StatusOK, rec.Flatten(col))
	}
}

// handleDeleteRecord removes a record.
func (s *Server) handleDeleteRecord(col content.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.records.Delete(r.Context(), col.Name, id); err != nil {
			if errors.Is(err, content.ErrRecordNotFound) {
				writeNotFound(w, "record not found")
				return
			}
			s.logger.Error("record delete failed", "collection", col.Name, "error", err)
			writeInternalError(w, "failed to delete record")
			return
		}

		s.hub.Broadcast(col.Name, "deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeRecordBody parses a request body as either JSON or multipart form
// data, returning schema field values and any staged file uploads keyed by
// field name.
func (s *Server) decodeRecordBody(r *http.Request, col content.Collection) (map[string]any, map[string]*multipart.FileHeader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through to JSON

	if strings.HasPrefix(mediaType, "multipart/") {
		return s.decodeMultipart(r, col)
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, nil, errors.New("invalid JSON body")
	}

	// The console echoes back server-managed keys on edit; strip them so
	// they do not trip schema validation.
	delete(raw, "id")
	delete(raw, "created_at")
	delete(raw, "updated_at")
	for _, f := range col.FileFields() {
		// File fields arrive as served URLs in JSON bodies, not uploads.
		delete(raw, f.Name)
	}

	return raw, nil, nil
}

func (s *Server) decodeMultipart(r *http.Request, col content.Collection) (map[string]any, map[string]*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(s.maxBodySize()); err != nil {
		return nil, nil, errors.New("invalid multipart body")
	}

	fields := make(map[string]any)
	for name, values := range r.MultipartForm.Value {
		if name == "id" || name == "created_at" || name == "updated_at" {
			continue
		}
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	uploads := make(map[string]*multipart.FileHeader)
	for _, f := range col.FileFields() {
		if headers := r.MultipartForm.File[f.Name]; len(headers) > 0 {
			uploads[f.Name] = headers[0]
		}
		// A file field may also arrive as a form value holding the
		// existing URL on edit; drop it rather than storing it as data.
		delete(fields, f.Name)
	}

	return fields, uploads, nil
}
