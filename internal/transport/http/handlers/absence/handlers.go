package absencehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/attachment"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/jobs"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/api"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/middleware"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/shared"
)

type Handler struct {
	Service     *absence.Service
	Attachments *attachment.Store
	Perms       middleware.PermissionStore
	Jobs        *jobs.Scheduler

	MaxAttachmentBytes int64
	MaxAttachmentsPer  int
}

func NewHandler(service *absence.Service, attachments *attachment.Store, perms middleware.PermissionStore, jobsSvc *jobs.Scheduler, maxAttachmentBytes int64, maxAttachmentsPer int) *Handler {
	return &Handler{
		Service:            service,
		Attachments:        attachments,
		Perms:              perms,
		Jobs:               jobsSvc,
		MaxAttachmentBytes: maxAttachmentBytes,
		MaxAttachmentsPer:  maxAttachmentsPer,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/absences", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTimeOffManage, h.Perms)).Patch("/bulk", h.handleBulkPatch)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/balance", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/{absenceID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Put("/{absenceID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Delete("/{absenceID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermTimeOffApprove, h.Perms)).Post("/{absenceID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermTimeOffApprove, h.Perms)).Post("/{absenceID}/deny", h.handleDeny)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Post("/{absenceID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Post("/{absenceID}/attachments", h.handleUploadAttachment)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/{absenceID}/attachments", h.handleListAttachments)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/{absenceID}/attachments/{attachmentID}/download", h.handleDownloadAttachment)
		r.With(middleware.RequirePermission(auth.PermTimeOffWrite, h.Perms)).Delete("/{absenceID}/attachments/{attachmentID}", h.handleDeleteAttachment)
	})
	r.Route("/holidays", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermTimeOffAdmin, h.Perms)).Post("/", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermTimeOffAdmin, h.Perms)).Delete("/{holidayID}", h.handleDeleteHoliday)
	})
	r.With(middleware.RequirePermission(auth.PermTimeOffAdmin, h.Perms)).Post("/jobs/completion/run", h.handleRunCompletion)
}

type absencePayload struct {
	UserID       string  `json:"userId"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	SubType      string  `json:"subType"`
	RecordType   string  `json:"recordType"`
	AbsenceHours float64 `json:"absenceHours"`
	BusinessYear string  `json:"businessYear"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Reason       string  `json:"reason"`
	Observations string  `json:"observations"`
}

func (p absencePayload) toInput() (absence.Input, error) {
	start, err := shared.ParseDate(p.StartDate)
	if err != nil {
		return absence.Input{}, err
	}
	end, err := shared.ParseDate(p.EndDate)
	if err != nil {
		return absence.Input{}, err
	}
	return absence.Input{
		UserID:       p.UserID,
		Name:         p.Name,
		Type:         absence.Type(p.Type),
		SubType:      p.SubType,
		RecordType:   absence.RecordType(p.RecordType),
		AbsenceHours: p.AbsenceHours,
		BusinessYear: p.BusinessYear,
		StartDate:    start,
		EndDate:      end,
		Reason:       p.Reason,
		Observations: p.Observations,
	}, nil
}

// writeDomainError maps domain failures onto the API error taxonomy.
func writeDomainError(w http.ResponseWriter, err error, reqID string) {
	var verr *absence.ValidationError
	switch {
	case errors.As(err, &verr):
		api.FailValidation(w, verr.Fields, reqID)
	case errors.Is(err, absence.ErrInsufficientVacationDays):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", "not enough vacation days available", reqID)
	case errors.Is(err, absence.ErrPermissionDenied):
		api.Fail(w, http.StatusForbidden, "forbidden", "operation not allowed", reqID)
	case errors.Is(err, absence.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "absence not found", reqID)
	case errors.Is(err, absence.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "operation not valid for current status", reqID)
	case errors.Is(err, auth.ErrBalanceConflict):
		api.Fail(w, http.StatusConflict, "conflict", "balance changed concurrently, retry", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", reqID)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload absencePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	in, err := payload.toInput()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date format", reqID)
		return
	}

	created, err := h.Service.Create(r.Context(), user, in)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	a, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	filter := absence.ListFilter{
		UserID: r.URL.Query().Get("userId"),
		Year:   r.URL.Query().Get("year"),
	}
	for _, raw := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, absence.Status(raw))
	}
	page := shared.ParsePagination(r, 50, 200)

	result, err := h.Service.List(r.Context(), user, filter, page.Limit, page.Offset)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload absencePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	in, err := payload.toInput()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date format", reqID)
		return
	}

	updated, err := h.Service.Update(r.Context(), user, chi.URLParam(r, "absenceID"), in)
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	if err := h.Service.Delete(r.Context(), user, chi.URLParam(r, "absenceID")); err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	a, err := h.Service.Approve(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	a, err := h.Service.Deny(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	a, err := h.Service.Cancel(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

type bulkPatchRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

func (h *Handler) handleBulkPatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload bulkPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload.IDs) == 0 {
		api.FailValidation(w, []string{"ids"}, reqID)
		return
	}

	result, err := h.Service.BulkPatch(r.Context(), user, payload.IDs, absence.BulkAction(payload.Action))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	balance, err := h.Service.UserBalance(r.Context(), user, r.URL.Query().Get("userId"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, balance, reqID)
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	holidays, err := h.Service.Store.ListHolidays(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_list_failed", "failed to list holidays", reqID)
		return
	}
	api.Success(w, holidays, reqID)
}

type holidayRequest struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil || date.IsZero() || payload.Name == "" {
		api.FailValidation(w, []string{"date", "name"}, reqID)
		return
	}

	id, err := h.Service.Store.CreateHoliday(r.Context(), date, payload.Name, payload.Region)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_create_failed", "failed to create holiday", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Service.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "holidayID")); err != nil {
		writeDomainError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleRunCompletion(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	marked := h.Jobs.RunCompletion(r.Context())
	api.Success(w, map[string]int64{"marked": marked}, reqID)
}

// guardAttachmentAccess loads the absence through the service so the usual
// read guard applies before any attachment operation.
func (h *Handler) guardAttachmentAccess(w http.ResponseWriter, r *http.Request, reqID string) (absence.Absence, auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return absence.Absence{}, auth.UserContext{}, false
	}
	a, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		writeDomainError(w, err, reqID)
		return absence.Absence{}, auth.UserContext{}, false
	}
	return a, user, true
}
