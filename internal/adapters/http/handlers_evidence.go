package httpadapter

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

const (
	defaultMaxUploadBytes = 25 << 20
	multipartMemoryBytes  = 8 << 20
)

func (rt *Router) uploadEvidence(w http.ResponseWriter, r *http.Request) {
	maxBytes := rt.cfg.APIMaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form is required")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	upload := domain.EvidenceUpload{
		ProfileID:    r.PathValue("profileID"),
		FileName:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Category:     r.FormValue("category"),
		DocumentType: r.FormValue("document_type"),
		Notes:        r.FormValue("notes"),
	}
	if raw := strings.TrimSpace(r.FormValue("expiration_date")); raw != "" {
		var expiration time.Time
		if err := runtime.BindStringToObject(raw, &expiration); err != nil {
			writeError(w, http.StatusBadRequest, "expiration_date must be RFC 3339 or YYYY-MM-DD")
			return
		}
		expiration = expiration.UTC()
		upload.ExpirationDate = &expiration
	}

	doc, err := rt.ingest.Upload(r.Context(), upload, file)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("documentID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
