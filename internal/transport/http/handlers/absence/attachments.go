package absencehandler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/attachment"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/api"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/middleware"
)

func (h *Handler) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	a, user, ok := h.guardAttachmentAccess(w, r, reqID)
	if !ok {
		return
	}

	count, err := h.Attachments.CountByAbsence(r.Context(), a.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attachment_upload_failed", "failed to upload attachment", reqID)
		return
	}
	if h.MaxAttachmentsPer > 0 && count >= h.MaxAttachmentsPer {
		api.Fail(w, http.StatusUnprocessableEntity, "attachment_limit", "attachment limit reached", reqID)
		return
	}

	if err := r.ParseMultipartForm(h.MaxAttachmentBytes + 1024); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", reqID)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.FailValidation(w, []string{"file"}, reqID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxAttachmentBytes+1))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attachment_upload_failed", "failed to read upload", reqID)
		return
	}
	if int64(len(data)) > h.MaxAttachmentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "attachment_too_large", "attachment exceeds the size limit", reqID)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	created, err := h.Attachments.Insert(r.Context(), a.ID, header.Filename, mimeType, user.UserID, data)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attachment_upload_failed", "failed to upload attachment", reqID)
		return
	}
	if err := h.Service.Store.SetHasAttachments(r.Context(), a.ID, true); err != nil {
		slog.Warn("set has_attachments failed", "absenceId", a.ID, "err", err)
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	a, _, ok := h.guardAttachmentAccess(w, r, reqID)
	if !ok {
		return
	}

	list, err := h.Attachments.ListByAbsence(r.Context(), a.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attachment_list_failed", "failed to list attachments", reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	a, _, ok := h.guardAttachmentAccess(w, r, reqID)
	if !ok {
		return
	}

	meta, data, err := h.Attachments.Data(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "attachment_download_failed", "failed to download attachment", reqID)
		return
	}
	if meta.AbsenceID != a.ID {
		api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
		return
	}

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.FileName))
	if _, err := w.Write(data); err != nil {
		slog.Warn("attachment write failed", "err", err)
	}
}

func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	a, _, ok := h.guardAttachmentAccess(w, r, reqID)
	if !ok {
		return
	}

	meta, _, err := h.Attachments.Data(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil || meta.AbsenceID != a.ID {
		api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
		return
	}
	if err := h.Attachments.Delete(r.Context(), meta.ID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "attachment_delete_failed", "failed to delete attachment", reqID)
		return
	}

	remaining, err := h.Attachments.CountByAbsence(r.Context(), a.ID)
	if err == nil && remaining == 0 {
		if err := h.Service.Store.SetHasAttachments(r.Context(), a.ID, false); err != nil {
			slog.Warn("set has_attachments failed", "absenceId", a.ID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}
