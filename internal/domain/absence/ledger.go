package absence

// Balance holds a user's two vacation-day buckets. The ledger is the only
// writer; every operation returns a new value instead of mutating shared
// state, so the arithmetic stays checkable independently of object identity.
type Balance struct {
	CurrentYear float64 `json:"currentYearVacationDays"`
	PrevYear    float64 `json:"prevYearVacationDays"`
}

// YearContext labels the two tracked business years. It is resolved once per
// request from settings and passed through explicitly.
type YearContext struct {
	Current  string
	Previous string
}

// Ledger owns the rules for moving days between the two buckets as an
// absence's type, business year, work-days or approval status changes.
// Amounts tagged with a year outside the context never touch a bucket.
type Ledger struct {
	Years YearContext
}

func NewLedger(years YearContext) Ledger {
	return Ledger{Years: years}
}

func (l Ledger) tracked(year string) bool {
	return year == l.Years.Current || year == l.Years.Previous
}

func (l Ledger) get(b Balance, year string) float64 {
	if year == l.Years.Previous {
		return b.PrevYear
	}
	return b.CurrentYear
}

func (l Ledger) set(b Balance, year string, value float64) Balance {
	if year == l.Years.Previous {
		b.PrevYear = value
	} else {
		b.CurrentYear = value
	}
	return b
}

func (l Ledger) refund(b Balance, year string, days float64) (Balance, bool) {
	if !l.tracked(year) || days == 0 {
		return b, false
	}
	return l.set(b, year, l.get(b, year)+days), true
}

// debit checks then subtracts; insufficient means available < requested,
// never <=. No rounding happens here.
func (l Ledger) debit(b Balance, year string, days float64) (Balance, bool, error) {
	if !l.tracked(year) {
		return b, false, nil
	}
	remaining := l.get(b, year) - days
	if remaining < 0 {
		return b, false, ErrInsufficientVacationDays
	}
	return l.set(b, year, remaining), true, nil
}

// ApplyOnCreate debits the absence's business year. Non-vacation records are
// a no-op. On failure the caller must not persist the absence.
func (l Ledger) ApplyOnCreate(b Balance, a Absence) (Balance, bool, error) {
	if a.Type != TypeVacation {
		return b, false, nil
	}
	return l.debit(b, a.BusinessYear, a.WorkDays)
}

// ApplyOnTypeChange handles the vacation<->absence flip. Leaving vacation
// refunds the old debit (unless already denied); entering vacation checks and
// debits the new work-days. Each side respects only the year it refers to.
func (l Ledger) ApplyOnTypeChange(b Balance, old, updated Absence) (Balance, bool, error) {
	if old.Type == TypeVacation && updated.Type != TypeVacation {
		if old.Status == StatusDenied {
			return b, false, nil
		}
		next, changed := l.refund(b, old.BusinessYear, old.WorkDays)
		return next, changed, nil
	}
	if old.Type != TypeVacation && updated.Type == TypeVacation {
		return l.debit(b, updated.BusinessYear, updated.WorkDays)
	}
	return b, false, nil
}

// ApplyOnEdit recomputes a year-aware delta for an edit that keeps the record
// a vacation. A denied absence consumed zero days, so its old work-days are
// not added back anywhere. Same-year edits fold the old refund into the
// destination check; cross-year edits refund the source year and debit the
// destination year as two independent bucket writes, with the single
// insufficiency check against the destination year only.
func (l Ledger) ApplyOnEdit(b Balance, old, updated Absence) (Balance, bool, error) {
	if updated.Type != TypeVacation {
		return b, false, nil
	}

	oldDays := old.WorkDays
	if old.Status == StatusDenied || old.Type != TypeVacation {
		oldDays = 0
	}

	changed := false
	if old.BusinessYear == updated.BusinessYear && l.tracked(updated.BusinessYear) {
		available := l.get(b, updated.BusinessYear) + oldDays
		remaining := available - updated.WorkDays
		if remaining < 0 {
			return b, false, ErrInsufficientVacationDays
		}
		return l.set(b, updated.BusinessYear, remaining), true, nil
	}

	b, refunded := l.refund(b, old.BusinessYear, oldDays)
	changed = changed || refunded

	next, debited, err := l.debit(b, updated.BusinessYear, updated.WorkDays)
	if err != nil {
		return b, false, err
	}
	return next, changed || debited, nil
}

// ApplyOnDelete refunds a non-denied vacation absence into its business year.
// Unknown years are silently ignored; only the two tracked buckets exist.
func (l Ledger) ApplyOnDelete(b Balance, a Absence) (Balance, bool) {
	if a.Type != TypeVacation || a.Status == StatusDenied {
		return b, false
	}
	return l.refund(b, a.BusinessYear, a.WorkDays)
}

// ApplyOnDeny refunds the denied absence's work-days when its (post-edit)
// type is vacation. The lifecycle guards against denying twice.
func (l Ledger) ApplyOnDeny(b Balance, a Absence) (Balance, bool) {
	if a.Type != TypeVacation {
		return b, false
	}
	return l.refund(b, a.BusinessYear, a.WorkDays)
}

// AggregateRefunds sums refunds per user across a bulk deny/pending batch so
// the caller applies one balance write per user. Already-denied records are
// skipped; they consumed zero days.
func (l Ledger) AggregateRefunds(list []Absence) map[string]Balance {
	deltas := make(map[string]Balance)
	for _, a := range list {
		if a.Type != TypeVacation || a.Status == StatusDenied {
			continue
		}
		if !l.tracked(a.BusinessYear) {
			continue
		}
		delta := deltas[a.UserID]
		delta = l.set(delta, a.BusinessYear, l.get(delta, a.BusinessYear)+a.WorkDays)
		deltas[a.UserID] = delta
	}
	for user, delta := range deltas {
		if delta.CurrentYear == 0 && delta.PrevYear == 0 {
			delete(deltas, user)
		}
	}
	return deltas
}

// Add applies an aggregated refund delta to a balance.
func (b Balance) Add(delta Balance) Balance {
	return Balance{
		CurrentYear: b.CurrentYear + delta.CurrentYear,
		PrevYear:    b.PrevYear + delta.PrevYear,
	}
}
