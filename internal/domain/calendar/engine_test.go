package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(id, userID string, typ absence.Type, recType absence.RecordType, status absence.Status, start, end time.Time, hours float64) absence.Absence {
	return absence.Absence{
		ID:           id,
		UserID:       userID,
		Name:         id,
		Type:         typ,
		RecordType:   recType,
		Status:       status,
		StartDate:    start,
		EndDate:      end,
		AbsenceHours: hours,
	}
}

func adminViewer() Viewer {
	return Viewer{UserID: "admin", Admin: true}
}

func TestBuildYearMatrixSkipsWeekendsAndHolidays(t *testing.T) {
	// Mon 2025-06-02 .. Sun 2025-06-08, Wednesday is a holiday.
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved,
		day(2025, time.June, 2), day(2025, time.June, 8), 0)
	holidays := absence.HolidaySet{"2025-06-04": true}

	m := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{a}, holidays, 8)

	key := BucketKey{Status: absence.StatusApproved, Type: absence.TypeVacation}
	require.Len(t, m, 4)
	for _, d := range []string{"2025-06-02", "2025-06-03", "2025-06-05", "2025-06-06"} {
		require.Contains(t, m, d)
		assert.Equal(t, 1.0, m[d].Totals[key], d)
	}
	assert.NotContains(t, m, "2025-06-04")
	assert.NotContains(t, m, "2025-06-07")
}

func TestBuildYearMatrixNewYearSpan(t *testing.T) {
	// 2022-01-01 is a Saturday and 2022-01-02 (a Sunday) is also a listed
	// holiday; only Monday the 3rd earns an increment.
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusPending,
		day(2022, time.January, 1), day(2022, time.January, 3), 0)
	holidays := absence.HolidaySet{"2022-01-02": true}

	m := BuildYearMatrix(adminViewer(), ScopeCompany, 2022, []absence.Absence{a}, holidays, 8)

	require.Len(t, m, 1)
	require.Contains(t, m, "2022-01-03")
	assert.Equal(t, 1.0, m["2022-01-03"].Totals[BucketKey{Status: absence.StatusPending, Type: absence.TypeVacation}])
}

func TestBuildYearMatrixContributions(t *testing.T) {
	monday := day(2025, time.June, 2)
	records := []absence.Absence{
		record("full", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0),
		record("half", "u2", absence.TypeVacation, absence.RecordHalfDay, absence.StatusApproved, monday, monday, 0),
		record("sick", "u3", absence.TypeAbsence, absence.RecordDay, absence.StatusPending, monday, monday, 0),
		record("hours", "u4", absence.TypeAbsence, absence.RecordHours, absence.StatusPending, monday, monday, 2),
	}

	m := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, records, nil, 8)

	cell := m["2025-06-02"]
	require.NotNil(t, cell)
	assert.Equal(t, 1.5, cell.Totals[BucketKey{Status: absence.StatusApproved, Type: absence.TypeVacation}])
	assert.Equal(t, 1.25, cell.Totals[BucketKey{Status: absence.StatusPending, Type: absence.TypeAbsence}])
}

func TestBuildYearMatrixClipsToYear(t *testing.T) {
	// Spans new year: Mon 2024-12-30 .. Fri 2025-01-03.
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved,
		day(2024, time.December, 30), day(2025, time.January, 3), 0)

	m := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{a}, nil, 8)

	assert.NotContains(t, m, "2024-12-30")
	assert.NotContains(t, m, "2024-12-31")
	assert.Contains(t, m, "2025-01-01")
	assert.Contains(t, m, "2025-01-02")
	assert.Contains(t, m, "2025-01-03")
}

func TestBuildYearMatrixOrderIndependent(t *testing.T) {
	monday := day(2025, time.June, 2)
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	b := record("a2", "u2", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)

	forward := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{a, b}, nil, 8)
	reverse := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{b, a}, nil, 8)

	assert.Equal(t, forward.Flatten(), reverse.Flatten())
}

func TestBuildYearMatrixSkipsCancelled(t *testing.T) {
	monday := day(2025, time.June, 2)
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusCancelled, monday, monday, 0)

	m := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{a}, nil, 8)
	assert.Empty(t, m)
}

func TestVisibilityScoping(t *testing.T) {
	monday := day(2025, time.June, 2)
	own := record("own", "emp", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	teammate := record("teammate", "t1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	outsider := record("outsider", "x1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	all := []absence.Absence{own, teammate, outsider}
	key := BucketKey{Status: absence.StatusApproved, Type: absence.TypeVacation}

	employee := Viewer{UserID: "emp"}
	m := BuildYearMatrix(employee, ScopeTeam, 2025, all, nil, 8)
	assert.Equal(t, 1.0, m["2025-06-02"].Totals[key], "employee sees only own records")

	manager := Viewer{UserID: "emp", Team: map[string]bool{"t1": true}}
	m = BuildYearMatrix(manager, ScopeTeam, 2025, all, nil, 8)
	assert.Equal(t, 2.0, m["2025-06-02"].Totals[key], "team scope adds direct reports")

	m = BuildYearMatrix(manager, ScopeCompany, 2025, all, nil, 8)
	assert.Equal(t, 3.0, m["2025-06-02"].Totals[key], "company scope opens up for managers")

	m = BuildYearMatrix(adminViewer(), ScopeTeam, 2025, all, nil, 8)
	assert.Equal(t, 3.0, m["2025-06-02"].Totals[key], "admins see everything regardless of scope")
}

func TestCompanyScopeKeepsAbsenceRecordsTeamPrivate(t *testing.T) {
	monday := day(2025, time.June, 2)
	sickOutsider := record("sick", "x1", absence.TypeAbsence, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	vacationOutsider := record("vac", "x2", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	all := []absence.Absence{sickOutsider, vacationOutsider}

	manager := Viewer{UserID: "m1", Team: map[string]bool{"t1": true}}
	m := BuildYearMatrix(manager, ScopeCompany, 2025, all, nil, 8)

	cell := m["2025-06-02"]
	require.NotNil(t, cell)
	assert.Zero(t, cell.Totals[BucketKey{Status: absence.StatusApproved, Type: absence.TypeAbsence}],
		"outsider ABSENCE records stay hidden under company scope")
	assert.Equal(t, 1.0, cell.Totals[BucketKey{Status: absence.StatusApproved, Type: absence.TypeVacation}],
		"vacations open up company-wide")
}

func TestDayDetailsExcludesDenied(t *testing.T) {
	monday := day(2025, time.June, 2)
	denied := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusDenied, monday, monday, 0)

	details := DayDetails(adminViewer(), ScopeCompany, monday, []absence.Absence{denied}, DayFilters{})
	assert.Empty(t, details)
}

func TestDayDetailsFilters(t *testing.T) {
	monday := day(2025, time.June, 2)
	approved := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	pending := record("a2", "u2", absence.TypeAbsence, absence.RecordDay, absence.StatusPending, monday, monday, 0)
	elsewhere := record("a3", "u3", absence.TypeVacation, absence.RecordDay, absence.StatusApproved,
		day(2025, time.June, 9), day(2025, time.June, 9), 0)
	all := []absence.Absence{approved, pending, elsewhere}

	details := DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{})
	require.Len(t, details, 2)

	details = DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{
		Statuses: map[absence.Status]bool{absence.StatusApproved: true},
	})
	require.Len(t, details, 1)
	assert.Equal(t, "a1", details[0].ID)

	details = DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{
		Types: map[absence.Type]bool{absence.TypeAbsence: true},
	})
	require.Len(t, details, 1)
	assert.Equal(t, "a2", details[0].ID)

	details = DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{
		UserIDs: map[string]bool{"u1": true},
	})
	require.Len(t, details, 1)
	assert.Equal(t, "a1", details[0].ID)
}

func TestDayDetailsBusinessYearFilter(t *testing.T) {
	monday := day(2025, time.June, 2)
	current := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	current.BusinessYear = "2025"
	previous := record("a2", "u2", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)
	previous.BusinessYear = "2024"
	all := []absence.Absence{current, previous}

	details := DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{
		BusinessYears: map[string]bool{"2024": true},
	})
	require.Len(t, details, 1)
	assert.Equal(t, "a2", details[0].ID)

	details = DayDetails(adminViewer(), ScopeCompany, monday, all, DayFilters{})
	assert.Len(t, details, 2, "empty year filter passes everything")
}

func TestFlattenKeys(t *testing.T) {
	monday := day(2025, time.June, 2)
	a := record("a1", "u1", absence.TypeVacation, absence.RecordDay, absence.StatusApproved, monday, monday, 0)

	flat := BuildYearMatrix(adminViewer(), ScopeCompany, 2025, []absence.Absence{a}, nil, 8).Flatten()
	require.Contains(t, flat, "2025-06-02")
	assert.Equal(t, 1.0, flat["2025-06-02"]["APPROVED_VACATION"])
}
