package calendar

import (
	"time"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
)

// Viewer describes who the matrix is built for. Team is the set of user ids
// the viewer manages; it is only consulted for TEAM scope.
type Viewer struct {
	UserID string
	Admin  bool
	Team   map[string]bool
}

type Scope string

const (
	ScopeTeam    Scope = "TEAM"
	ScopeCompany Scope = "COMPANY"
)

// BucketKey identifies one (status, type) cell bucket.
type BucketKey struct {
	Status absence.Status `json:"status"`
	Type   absence.Type   `json:"type"`
}

// DayCell accumulates fractional day totals per bucket for one calendar date.
type DayCell struct {
	Totals map[BucketKey]float64
}

// Matrix maps YYYY-MM-DD date keys to their cells. Dates with no contribution
// have no entry.
type Matrix map[string]*DayCell

func (m Matrix) cell(key string) *DayCell {
	c, ok := m[key]
	if !ok {
		c = &DayCell{Totals: make(map[BucketKey]float64)}
		m[key] = c
	}
	return c
}

// visible reports whether the viewer may see the absence under the scope.
// Admins see everything. TEAM scope limits everyone else to themselves plus
// their reports. COMPANY scope opens vacations company-wide, while ABSENCE
// records stay inside the viewer's team; they carry health and personal
// sub-types.
func (v Viewer) visible(a absence.Absence, scope Scope) bool {
	if v.Admin || a.UserID == v.UserID {
		return true
	}
	if scope == ScopeCompany && a.Type == absence.TypeVacation {
		return true
	}
	return v.Team[a.UserID]
}

// visibleOnDay is the per-record filter for day listings: company scope shows
// everything, managers additionally see any vacation plus their team's
// ABSENCE records.
func (v Viewer) visibleOnDay(a absence.Absence, scope Scope) bool {
	if v.Admin || scope == ScopeCompany {
		return true
	}
	if a.UserID == v.UserID {
		return true
	}
	if len(v.Team) == 0 {
		return false
	}
	if a.Type == absence.TypeVacation {
		return true
	}
	return v.Team[a.UserID]
}

// contribution is the per-business-day weight of one absence.
func contribution(a absence.Absence, maxHoursPerDay float64) float64 {
	if a.Type == absence.TypeVacation {
		switch a.RecordType {
		case absence.RecordHalfDay, absence.RecordHours:
			return 0.5
		default:
			return 1.0
		}
	}
	if a.RecordType == absence.RecordHours && maxHoursPerDay > 0 {
		return a.AbsenceHours / maxHoursPerDay
	}
	return 1.0
}

// BuildYearMatrix folds every absence into per-date buckets over the year's
// business-day grid. Each absence's span is clipped to the year; weekends and
// holidays contribute nothing. Addition into a bucket is order-independent,
// so the input ordering does not matter.
func BuildYearMatrix(viewer Viewer, scope Scope, year int, absences []absence.Absence, holidays absence.HolidaySet, maxHoursPerDay float64) Matrix {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	m := make(Matrix)
	for _, a := range absences {
		if a.Status == absence.StatusCancelled {
			continue
		}
		if !viewer.visible(a, scope) {
			continue
		}

		start := a.StartDate
		if start.Before(yearStart) {
			start = yearStart
		}
		end := a.EndDate
		if end.After(yearEnd) {
			end = yearEnd
		}
		if end.Before(start) {
			continue
		}

		weight := contribution(a, maxHoursPerDay)
		key := BucketKey{Status: a.Status, Type: a.Type}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !absence.IsBusinessDay(d, holidays) {
				continue
			}
			m.cell(absence.DateKey(d)).Totals[key] += weight
		}
	}
	return m
}

// Flatten renders the matrix as date -> "STATUS_TYPE" -> total, the shape the
// API returns.
func (m Matrix) Flatten() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for date, cell := range m {
		buckets := make(map[string]float64, len(cell.Totals))
		for key, total := range cell.Totals {
			buckets[string(key.Status)+"_"+string(key.Type)] = total
		}
		out[date] = buckets
	}
	return out
}

// DayFilters restricts a day-details listing; empty sets pass everything.
type DayFilters struct {
	Statuses      map[absence.Status]bool
	Types         map[absence.Type]bool
	UserIDs       map[string]bool
	BusinessYears map[string]bool
}

func (f DayFilters) match(a absence.Absence) bool {
	if len(f.Statuses) > 0 && !f.Statuses[a.Status] {
		return false
	}
	if len(f.Types) > 0 && !f.Types[a.Type] {
		return false
	}
	if len(f.UserIDs) > 0 && !f.UserIDs[a.UserID] {
		return false
	}
	if len(f.BusinessYears) > 0 && !f.BusinessYears[a.BusinessYear] {
		return false
	}
	return true
}

// DayDetails lists the individual absences covering one date, under the same
// visibility rules the matrix uses.
func DayDetails(viewer Viewer, scope Scope, day time.Time, absences []absence.Absence, filters DayFilters) []absence.Absence {
	key := absence.DateKey(day)
	out := make([]absence.Absence, 0)
	for _, a := range absences {
		if a.Status == absence.StatusCancelled || a.Status == absence.StatusDenied {
			continue
		}
		if !viewer.visibleOnDay(a, scope) {
			continue
		}
		if absence.DateKey(a.StartDate) > key || absence.DateKey(a.EndDate) < key {
			continue
		}
		if !filters.match(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}
