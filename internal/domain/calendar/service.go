package calendar

import (
	"context"
	"time"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/settings"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/metrics"
)

type Service struct {
	Absences *absence.Store
	Users    *auth.Store
	Settings *settings.Service
	Metrics  *metrics.Metrics
}

func NewService(absences *absence.Store, users *auth.Store, settingsSvc *settings.Service, m *metrics.Metrics) *Service {
	return &Service{Absences: absences, Users: users, Settings: settingsSvc, Metrics: m}
}

func (s *Service) viewer(ctx context.Context, uc auth.UserContext) (Viewer, error) {
	v := Viewer{
		UserID: uc.UserID,
		Admin:  auth.RoleHasPermission(uc.Role, auth.PermTimeOffAdmin),
	}
	if uc.Role == auth.RoleManager {
		team, err := s.Users.DirectReports(ctx, uc.UserID)
		if err != nil {
			return v, err
		}
		v.Team = team
	}
	return v, nil
}

func (s *Service) yearData(ctx context.Context, year int) ([]absence.Absence, absence.HolidaySet, settings.Snapshot, error) {
	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		return nil, nil, settings.Snapshot{}, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	absences, err := s.Absences.ListOverlapping(ctx, from, to)
	if err != nil {
		return nil, nil, snap, err
	}
	holidays, err := s.Absences.HolidaysBetween(ctx, from, to)
	if err != nil {
		return nil, nil, snap, err
	}
	return absences, holidays, snap, nil
}

// YearMatrix builds the visible (status, type) totals per date for one year.
func (s *Service) YearMatrix(ctx context.Context, uc auth.UserContext, scope Scope, year int) (Matrix, error) {
	start := time.Now()
	v, err := s.viewer(ctx, uc)
	if err != nil {
		return nil, err
	}
	absences, holidays, snap, err := s.yearData(ctx, year)
	if err != nil {
		return nil, err
	}
	m := BuildYearMatrix(v, scope, year, absences, holidays, snap.MaxHoursPerDay)
	if s.Metrics != nil {
		s.Metrics.CalendarBuilds.Observe(time.Since(start).Seconds())
	}
	return m, nil
}

// Day lists the individual absences covering one date, filtered.
func (s *Service) Day(ctx context.Context, uc auth.UserContext, scope Scope, day time.Time, filters DayFilters) ([]absence.Absence, error) {
	v, err := s.viewer(ctx, uc)
	if err != nil {
		return nil, err
	}
	absences, err := s.Absences.ListOverlapping(ctx, day, day)
	if err != nil {
		return nil, err
	}
	return DayDetails(v, scope, day, absences, filters), nil
}

// ExportRow is one absence flattened for CSV, ICS and PDF export.
type ExportRow struct {
	UserName  string
	Name      string
	Type      absence.Type
	Status    absence.Status
	StartDate time.Time
	EndDate   time.Time
	WorkDays  float64
}

// ExportYear returns the viewer-visible absences of a year as export rows,
// resolving owner display names.
func (s *Service) ExportYear(ctx context.Context, uc auth.UserContext, scope Scope, year int) ([]ExportRow, error) {
	v, err := s.viewer(ctx, uc)
	if err != nil {
		return nil, err
	}
	absences, _, _, err := s.yearData(ctx, year)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	rows := make([]ExportRow, 0, len(absences))
	for _, a := range absences {
		if a.Status == absence.StatusCancelled {
			continue
		}
		if !v.visible(a, scope) {
			continue
		}
		name, ok := names[a.UserID]
		if !ok {
			u, err := s.Users.UserByID(ctx, a.UserID)
			if err != nil {
				name = a.UserID
			} else {
				name = u.Name
			}
			names[a.UserID] = name
		}
		rows = append(rows, ExportRow{
			UserName:  name,
			Name:      a.Name,
			Type:      a.Type,
			Status:    a.Status,
			StartDate: a.StartDate,
			EndDate:   a.EndDate,
			WorkDays:  a.WorkDays,
		})
	}
	return rows, nil
}
