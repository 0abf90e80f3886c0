package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/querier"
)

// Snapshot is the business-year configuration resolved once per request and
// passed explicitly through the ledger and lifecycle operations, instead of
// being re-fetched inside each method.
type Snapshot struct {
	CurrentYear         string  `json:"currentYear"`
	PreviousYear        string  `json:"previousYear"`
	MaxHoursPerDay      float64 `json:"maxHoursPerDay"`
	DefaultVacationDays float64 `json:"defaultVacationDays"`
}

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.Store.Load(ctx)
}

func (s *Service) Update(ctx context.Context, currentYear string, maxHoursPerDay, defaultVacationDays float64) error {
	if _, err := strconv.Atoi(currentYear); err != nil {
		return errors.New("current year must be a numeric year")
	}
	if maxHoursPerDay <= 0 {
		return errors.New("max hours per day must be positive")
	}
	if defaultVacationDays < 0 {
		return errors.New("default vacation days must not be negative")
	}
	return s.Store.Save(ctx, currentYear, maxHoursPerDay, defaultVacationDays)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.DB.QueryRow(ctx, `
    SELECT current_year, max_hours_per_day, default_vacation_days
    FROM settings
    WHERE id = 1
  `).Scan(&snap.CurrentYear, &snap.MaxHoursPerDay, &snap.DefaultVacationDays)
	if err != nil {
		return snap, err
	}
	snap.PreviousYear = previousYear(snap.CurrentYear)
	return snap, nil
}

func (s *Store) Save(ctx context.Context, currentYear string, maxHoursPerDay, defaultVacationDays float64) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE settings
    SET current_year = $1, max_hours_per_day = $2, default_vacation_days = $3, updated_at = now()
    WHERE id = 1
  `, currentYear, maxHoursPerDay, defaultVacationDays)
	return err
}

func previousYear(current string) string {
	year, err := strconv.Atoi(current)
	if err != nil {
		return ""
	}
	return strconv.Itoa(year - 1)
}
