package server

import (
	"net/http"

	"quotedesk/internal/app"
	"quotedesk/pkg/domain"
)

// handleAttachmentUpload accepts a multipart form with fields quotationId
// and file. Uploads stay on a separate endpoint because the RPC surface is
// JSON-only.
func (s *Server) handleAttachmentUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid form data")
		return
	}
	quotationID := r.FormValue("quotationId")
	if quotationID == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "quotationId is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "file is required (field: file)")
		return
	}
	defer file.Close()

	att, err := s.app.UploadAttachment(r.Context(), user, app.AttachmentUpload{
		QuotationID: quotationID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (s *Server) handleAttachmentGetURL(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	url, err := s.app.AttachmentDownloadURL(r.Context(), user, in.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, url)
}

func (s *Server) handleAttachmentDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := s.app.DeleteAttachment(r.Context(), user, in.ID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
