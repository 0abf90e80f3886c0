package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/querier"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrBalanceConflict signals a lost compare-and-swap on a balance write.
	ErrBalanceConflict = errors.New("balance modified concurrently")
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{DB: tx}
}

type LoginUser struct {
	ID           string
	Role         string
	PasswordHash string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (LoginUser, error) {
	var out LoginUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, role, password_hash
    FROM users
    WHERE email = $1 AND status = 'ACTIVE'
  `, email).Scan(&out.ID, &out.Role, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrUserNotFound
	}
	return out, err
}

// scanUser reads one users row. job_title and manager_id are nullable, so
// they go through pointer intermediaries before landing on the struct.
func scanUser(row pgx.Row) (User, error) {
	var u User
	var jobTitle, managerID *string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &jobTitle, &managerID, &u.AutoApprove, &u.Status, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	if jobTitle != nil {
		u.JobTitle = *jobTitle
	}
	if managerID != nil {
		u.ManagerID = *managerID
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, job_title, manager_id, auto_approve, status, created_at
    FROM users
    WHERE id = $1
  `, userID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// Balance reads the two vacation-day buckets plus the version guarding them.
// Only the ledger path writes them back, inside the same transaction as the
// absence write.
func (s *Store) Balance(ctx context.Context, userID string) (currentYear, prevYear float64, version int64, err error) {
	err = s.DB.QueryRow(ctx, `
    SELECT current_year_vacation_days, prev_year_vacation_days, balance_version
    FROM users
    WHERE id = $1
  `, userID).Scan(&currentYear, &prevYear, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrUserNotFound
	}
	return currentYear, prevYear, version, err
}

// UpdateBalance is a compare-and-swap on the version read by Balance. A zero
// row count means another request moved the balance first; the caller rolls
// back and surfaces the conflict.
func (s *Store) UpdateBalance(ctx context.Context, userID string, currentYear, prevYear float64, version int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET current_year_vacation_days = $1, prev_year_vacation_days = $2,
        balance_version = balance_version + 1, updated_at = now()
    WHERE id = $3 AND balance_version = $4
  `, currentYear, prevYear, userID, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBalanceConflict
	}
	return nil
}

// DirectReports returns the ids of users whose line manager is managerID.
func (s *Store) DirectReports(ctx context.Context, managerID string) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM users
    WHERE manager_id = $1 AND status = 'ACTIVE'
  `, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	team := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		team[id] = true
	}
	return team, rows.Err()
}

func (s *Store) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE id = $1 AND manager_id = $2
  `, userID, managerID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
