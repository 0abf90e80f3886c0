package absence

import (
	"errors"
	"time"
)

// HolidaySet is a date-membership set keyed by YYYY-MM-DD.
type HolidaySet map[string]bool

func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (h HolidaySet) Contains(t time.Time) bool {
	return h[DateKey(t)]
}

// IsBusinessDay excludes Saturdays, Sundays and holidays.
func IsBusinessDay(t time.Time, holidays HolidaySet) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !holidays.Contains(t)
}

// CountBusinessDays counts business days in [start, end] inclusive.
func CountBusinessDays(start, end time.Time, holidays HolidaySet) (int, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	count := 0
	for day := truncateDay(start); !day.After(truncateDay(end)); day = day.AddDate(0, 0, 1) {
		if IsBusinessDay(day, holidays) {
			count++
		}
	}
	return count, nil
}

// CalculateWorkDays derives the fractional business days a record consumes.
// DAY counts whole business days, HALF_DAY half of each, HOURS divides by the
// configured day length. The ledger itself never rounds or derives.
func CalculateWorkDays(recordType RecordType, start, end time.Time, hours, maxHoursPerDay float64, holidays HolidaySet) (float64, error) {
	switch recordType {
	case RecordDay, RecordHalfDay:
		days, err := CountBusinessDays(start, end, holidays)
		if err != nil {
			return 0, err
		}
		if recordType == RecordHalfDay {
			return float64(days) * 0.5, nil
		}
		return float64(days), nil
	case RecordHours:
		if maxHoursPerDay <= 0 {
			return 0, errors.New("max hours per day must be positive")
		}
		if hours < 0 {
			return 0, errors.New("absence hours must not be negative")
		}
		return hours / maxHoursPerDay, nil
	default:
		return 0, errors.New("unknown record type")
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
