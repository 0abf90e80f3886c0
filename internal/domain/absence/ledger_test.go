package absence

import "testing"

func testLedger() Ledger {
	return NewLedger(YearContext{Current: "2025", Previous: "2024"})
}

func vacation(id, userID, year string, days float64, status Status) Absence {
	return Absence{
		ID:           id,
		UserID:       userID,
		Type:         TypeVacation,
		RecordType:   RecordDay,
		BusinessYear: year,
		WorkDays:     days,
		Status:       status,
	}
}

func TestCreateDebitsCurrentYear(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 10, PrevYear: 5}

	next, changed, err := l.ApplyOnCreate(b, vacation("a1", "u1", "2025", 3, StatusPending))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected balance change")
	}
	if next.CurrentYear != 7 || next.PrevYear != 5 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestCreateDebitsPreviousYear(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 10, PrevYear: 5}

	next, _, err := l.ApplyOnCreate(b, vacation("a1", "u1", "2024", 2, StatusPending))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.CurrentYear != 10 || next.PrevYear != 3 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestCreateInsufficientLeavesBalanceUntouched(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 2, PrevYear: 0}

	next, changed, err := l.ApplyOnCreate(b, vacation("a1", "u1", "2025", 2.5, StatusPending))
	if err != ErrInsufficientVacationDays {
		t.Fatalf("expected insufficiency, got %v", err)
	}
	if changed || next != b {
		t.Fatalf("balance should be untouched, got %+v", next)
	}
}

func TestCreateExactBalanceSucceeds(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 2.5}

	next, _, err := l.ApplyOnCreate(b, vacation("a1", "u1", "2025", 2.5, StatusPending))
	if err != nil {
		t.Fatalf("exact balance must pass: %v", err)
	}
	if next.CurrentYear != 0 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestCreateNonVacationIsNoop(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 1}
	a := vacation("a1", "u1", "2025", 4, StatusPending)
	a.Type = TypeAbsence

	next, changed, err := l.ApplyOnCreate(b, a)
	if err != nil || changed || next != b {
		t.Fatalf("non-vacation create must not touch the ledger: %+v %v %v", next, changed, err)
	}
}

func TestCreateUntrackedYearIgnored(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 1}

	next, changed, err := l.ApplyOnCreate(b, vacation("a1", "u1", "2020", 99, StatusPending))
	if err != nil || changed || next != b {
		t.Fatalf("untracked year must be ignored: %+v %v %v", next, changed, err)
	}
}

func TestDeleteRoundTripsCreate(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 10, PrevYear: 4}
	a := vacation("a1", "u1", "2025", 3.5, StatusApproved)

	debited, _, err := l.ApplyOnCreate(b, a)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	refunded, changed := l.ApplyOnDelete(debited, a)
	if !changed {
		t.Fatal("expected refund on delete")
	}
	if refunded != b {
		t.Fatalf("delete must round-trip create: got %+v want %+v", refunded, b)
	}
}

func TestDeleteDeniedRefundsNothing(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 10}

	next, changed := l.ApplyOnDelete(b, vacation("a1", "u1", "2025", 3, StatusDenied))
	if changed || next != b {
		t.Fatalf("denied absences consumed zero days: %+v", next)
	}
}

func TestDenyRefundsWorkDays(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 7}

	next, changed := l.ApplyOnDeny(b, vacation("a1", "u1", "2025", 3, StatusApproved))
	if !changed || next.CurrentYear != 10 {
		t.Fatalf("unexpected balance after deny: %+v", next)
	}
}

func TestEditSameYearFoldsOldDays(t *testing.T) {
	l := testLedger()
	// 10 total, 3 already debited.
	b := Balance{CurrentYear: 7}
	old := vacation("a1", "u1", "2025", 3, StatusPending)
	updated := vacation("a1", "u1", "2025", 5, StatusPending)

	next, changed, err := l.ApplyOnEdit(b, old, updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || next.CurrentYear != 5 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestEditSameYearInsufficientUsesFoldedAvailability(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 1}
	old := vacation("a1", "u1", "2025", 3, StatusPending)
	updated := vacation("a1", "u1", "2025", 4.5, StatusPending)

	// 1 + 3 = 4 available, 4.5 requested.
	next, changed, err := l.ApplyOnEdit(b, old, updated)
	if err != ErrInsufficientVacationDays {
		t.Fatalf("expected insufficiency, got %v", err)
	}
	if changed || next != b {
		t.Fatalf("failed edit must not move days: %+v", next)
	}
}

func TestEditCrossYearMovesDaysBetweenBuckets(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 7, PrevYear: 2}
	old := vacation("a1", "u1", "2025", 3, StatusPending)
	updated := vacation("a1", "u1", "2024", 2, StatusPending)

	next, changed, err := l.ApplyOnEdit(b, old, updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || next.CurrentYear != 10 || next.PrevYear != 0 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestEditCrossYearChecksDestinationOnly(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 0, PrevYear: 1}
	old := vacation("a1", "u1", "2025", 5, StatusPending)
	updated := vacation("a1", "u1", "2024", 3, StatusPending)

	next, _, err := l.ApplyOnEdit(b, old, updated)
	if err != ErrInsufficientVacationDays {
		t.Fatalf("expected insufficiency against destination year, got %v", err)
	}
	if next != b {
		t.Fatalf("failed edit must not move days: %+v", next)
	}
}

func TestEditAfterDenyTreatsOldDaysAsZero(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 4}
	old := vacation("a1", "u1", "2025", 3, StatusDenied)
	updated := vacation("a1", "u1", "2025", 2, StatusPending)

	next, changed, err := l.ApplyOnEdit(b, old, updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || next.CurrentYear != 2 {
		t.Fatalf("denied old days must not be added back: %+v", next)
	}
}

func TestTypeChangeVacationToAbsenceRefunds(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 7}
	old := vacation("a1", "u1", "2025", 3, StatusApproved)
	updated := old
	updated.Type = TypeAbsence

	next, changed, err := l.ApplyOnTypeChange(b, old, updated)
	if err != nil || !changed {
		t.Fatalf("expected refund: %v", err)
	}
	if next.CurrentYear != 10 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestTypeChangeDeniedVacationRefundsNothing(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 7}
	old := vacation("a1", "u1", "2025", 3, StatusDenied)
	updated := old
	updated.Type = TypeAbsence

	next, changed, err := l.ApplyOnTypeChange(b, old, updated)
	if err != nil || changed || next != b {
		t.Fatalf("denied vacation refunds nothing: %+v %v %v", next, changed, err)
	}
}

func TestTypeChangeAbsenceToVacationDebits(t *testing.T) {
	l := testLedger()
	b := Balance{CurrentYear: 5}
	old := vacation("a1", "u1", "2025", 3, StatusPending)
	old.Type = TypeAbsence
	updated := vacation("a1", "u1", "2025", 3, StatusPending)

	next, changed, err := l.ApplyOnTypeChange(b, old, updated)
	if err != nil || !changed {
		t.Fatalf("expected debit: %v", err)
	}
	if next.CurrentYear != 2 {
		t.Fatalf("unexpected balance: %+v", next)
	}
}

func TestAggregateRefundsMatchesSequentialDenies(t *testing.T) {
	l := testLedger()
	batch := []Absence{
		vacation("a1", "u1", "2025", 2, StatusPending),
		vacation("a2", "u1", "2024", 1.5, StatusApproved),
		vacation("a3", "u1", "2025", 1, StatusDenied), // consumed nothing
		vacation("a4", "u2", "2025", 4, StatusPending),
		{ID: "a5", UserID: "u2", Type: TypeAbsence, BusinessYear: "2025", WorkDays: 3, Status: StatusPending},
	}

	deltas := l.AggregateRefunds(batch)

	sequential := map[string]Balance{}
	for _, a := range batch {
		if next, changed := l.ApplyOnDeny(sequential[a.UserID], a); changed && a.Status != StatusDenied {
			sequential[a.UserID] = next
		}
	}

	if len(deltas) != 2 {
		t.Fatalf("expected deltas for two users, got %d", len(deltas))
	}
	for user, want := range sequential {
		if deltas[user] != want {
			t.Fatalf("user %s: aggregate %+v, sequential %+v", user, deltas[user], want)
		}
	}
}

func TestAggregateRefundsSkipsUntrackedYears(t *testing.T) {
	l := testLedger()
	deltas := l.AggregateRefunds([]Absence{vacation("a1", "u1", "2019", 9, StatusPending)})
	if len(deltas) != 0 {
		t.Fatalf("untracked years must not produce deltas: %+v", deltas)
	}
}
