package absence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountBusinessDaysSkipsWeekends(t *testing.T) {
	// Mon 2025-06-02 .. Sun 2025-06-08: five business days.
	days, err := CountBusinessDays(date(2025, time.June, 2), date(2025, time.June, 8), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 5 {
		t.Fatalf("expected 5, got %d", days)
	}
}

func TestCountBusinessDaysSkipsHolidays(t *testing.T) {
	holidays := HolidaySet{"2025-06-04": true}
	days, err := CountBusinessDays(date(2025, time.June, 2), date(2025, time.June, 6), holidays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 4 {
		t.Fatalf("expected 4, got %d", days)
	}
}

func TestCountBusinessDaysSingleDay(t *testing.T) {
	days, err := CountBusinessDays(date(2025, time.June, 3), date(2025, time.June, 3), nil)
	if err != nil || days != 1 {
		t.Fatalf("single weekday must count once: %d %v", days, err)
	}

	days, err = CountBusinessDays(date(2025, time.June, 7), date(2025, time.June, 7), nil)
	if err != nil || days != 0 {
		t.Fatalf("saturday must count zero: %d %v", days, err)
	}
}

func TestCountBusinessDaysRejectsInvertedRange(t *testing.T) {
	if _, err := CountBusinessDays(date(2025, time.June, 5), date(2025, time.June, 2), nil); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestCalculateWorkDaysDay(t *testing.T) {
	got, err := CalculateWorkDays(RecordDay, date(2025, time.June, 2), date(2025, time.June, 6), 0, 8, nil)
	if err != nil || got != 5 {
		t.Fatalf("unexpected result: %v %v", got, err)
	}
}

func TestCalculateWorkDaysHalfDay(t *testing.T) {
	got, err := CalculateWorkDays(RecordHalfDay, date(2025, time.June, 2), date(2025, time.June, 6), 0, 8, nil)
	if err != nil || got != 2.5 {
		t.Fatalf("unexpected result: %v %v", got, err)
	}
}

func TestCalculateWorkDaysHours(t *testing.T) {
	got, err := CalculateWorkDays(RecordHours, date(2025, time.June, 2), date(2025, time.June, 2), 4, 8, nil)
	if err != nil || got != 0.5 {
		t.Fatalf("unexpected result: %v %v", got, err)
	}
}

func TestCalculateWorkDaysHoursNeedsDayLength(t *testing.T) {
	if _, err := CalculateWorkDays(RecordHours, date(2025, time.June, 2), date(2025, time.June, 2), 4, 0, nil); err == nil {
		t.Fatal("expected error for zero day length")
	}
}
