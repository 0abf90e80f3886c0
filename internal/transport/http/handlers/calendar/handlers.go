package calendarhandler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/calendar"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/api"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/middleware"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/shared"
)

type Handler struct {
	Service *calendar.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *calendar.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/{year}", h.handleYearMatrix)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/day/{date}", h.handleDayDetails)
		r.With(middleware.RequirePermission(auth.PermTimeOffRead, h.Perms)).Get("/{year}/export", h.handleExport)
	})
}

func parseScope(raw string) calendar.Scope {
	if strings.EqualFold(raw, string(calendar.ScopeCompany)) {
		return calendar.ScopeCompany
	}
	return calendar.ScopeTeam
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2200 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func (h *Handler) handleYearMatrix(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		api.FailValidation(w, []string{"year"}, reqID)
		return
	}
	scope := parseScope(r.URL.Query().Get("scope"))

	matrix, err := h.Service.YearMatrix(r.Context(), user, scope, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to build calendar", reqID)
		return
	}
	api.Success(w, matrix.Flatten(), reqID)
}

func (h *Handler) handleDayDetails(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	day, err := shared.ParseDate(chi.URLParam(r, "date"))
	if err != nil || day.IsZero() {
		api.FailValidation(w, []string{"date"}, reqID)
		return
	}
	scope := parseScope(r.URL.Query().Get("scope"))

	filters := calendar.DayFilters{}
	if values := r.URL.Query()["status"]; len(values) > 0 {
		filters.Statuses = make(map[absence.Status]bool, len(values))
		for _, v := range values {
			filters.Statuses[absence.Status(v)] = true
		}
	}
	if values := r.URL.Query()["type"]; len(values) > 0 {
		filters.Types = make(map[absence.Type]bool, len(values))
		for _, v := range values {
			filters.Types[absence.Type(v)] = true
		}
	}
	if values := r.URL.Query()["userId"]; len(values) > 0 {
		filters.UserIDs = make(map[string]bool, len(values))
		for _, v := range values {
			filters.UserIDs[v] = true
		}
	}
	if values := r.URL.Query()["businessYear"]; len(values) > 0 {
		filters.BusinessYears = make(map[string]bool, len(values))
		for _, v := range values {
			filters.BusinessYears[v] = true
		}
	}

	details, err := h.Service.Day(r.Context(), user, scope, day, filters)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load day details", reqID)
		return
	}
	api.Success(w, details, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		api.FailValidation(w, []string{"year"}, reqID)
		return
	}
	scope := parseScope(r.URL.Query().Get("scope"))

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	rows, err := h.Service.ExportYear(r.Context(), user, scope, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", reqID)
		return
	}

	switch format {
	case "ics":
		h.writeICS(w, rows)
	case "pdf":
		h.writePDF(w, year, rows, reqID)
	default:
		h.writeCSV(w, rows)
	}
}

func (h *Handler) writeICS(w http.ResponseWriter, rows []calendar.ExportRow) {
	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", "attachment; filename=absence-calendar.ics")

	var builder strings.Builder
	builder.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//TimeSense//Absence Calendar//EN\r\n")
	for i, row := range rows {
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:absence-%d-%s\r\n", i, row.StartDate.Format("20060102")))
		builder.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", row.StartDate.Format("20060102")))
		builder.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", row.EndDate.AddDate(0, 0, 1).Format("20060102")))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s - %s (%s)\r\n", row.UserName, row.Name, row.Status))
		builder.WriteString("END:VEVENT\r\n")
	}
	builder.WriteString("END:VCALENDAR\r\n")
	if _, err := w.Write([]byte(builder.String())); err != nil {
		slog.Warn("calendar ics write failed", "err", err)
	}
}

func (h *Handler) writeCSV(w http.ResponseWriter, rows []calendar.ExportRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=absence-calendar.csv")

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee", "name", "type", "status", "start_date", "end_date", "work_days"}); err != nil {
		slog.Warn("calendar csv header write failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.UserName,
			row.Name,
			string(row.Type),
			string(row.Status),
			row.StartDate.Format("2006-01-02"),
			row.EndDate.Format("2006-01-02"),
			strconv.FormatFloat(row.WorkDays, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("calendar csv row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("calendar csv flush failed", "err", err)
	}
}

func (h *Handler) writePDF(w http.ResponseWriter, year int, rows []calendar.ExportRow, reqID string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Absence Calendar %d", year))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 7, "Employee", "1", 0, "", false, 0, "")
	pdf.CellFormat(45, 7, "Absence", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "From", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "To", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.UserName, "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 6, row.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, string(row.Status), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, row.StartDate.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, row.EndDate.Format("2006-01-02"), "1", 1, "", false, 0, "")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=absence-calendar-%d.pdf", year))
	if err := pdf.Output(w); err != nil {
		slog.Warn("calendar pdf write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to render pdf", reqID)
	}
}
