package absence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const absenceColumns = `
  id, user_id, name, type, sub_type, record_type, absence_hours, work_days,
  business_year, start_date, end_date, status, approver_id, approved_by,
  approved_at, reason, observations, has_attachments, created_at, updated_at`

func scanAbsence(row pgx.Row) (Absence, error) {
	var a Absence
	var approvedBy, reason, observations, subType *string
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &subType, &a.RecordType,
		&a.AbsenceHours, &a.WorkDays, &a.BusinessYear, &a.StartDate, &a.EndDate,
		&a.Status, &a.ApproverID, &approvedBy, &a.ApprovedAt, &reason,
		&observations, &a.HasAttachments, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	if subType != nil {
		a.SubType = *subType
	}
	if approvedBy != nil {
		a.ApprovedBy = *approvedBy
	}
	if reason != nil {
		a.Reason = *reason
	}
	if observations != nil {
		a.Observations = *observations
	}
	return a, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (Absence, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+absenceColumns+`
    FROM absences
    WHERE id = $1 AND deleted_at IS NULL
  `, id)
	a, err := scanAbsence(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *Store) Insert(ctx context.Context, a Absence) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO absences (
      id, user_id, name, type, sub_type, record_type, absence_hours, work_days,
      business_year, start_date, end_date, status, approver_id, approved_by,
      approved_at, reason, observations, has_attachments
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `, a.ID, a.UserID, a.Name, a.Type, nullable(a.SubType), a.RecordType,
		a.AbsenceHours, a.WorkDays, a.BusinessYear, a.StartDate, a.EndDate,
		a.Status, a.ApproverID, nullable(a.ApprovedBy), a.ApprovedAt,
		nullable(a.Reason), nullable(a.Observations), a.HasAttachments)
	return err
}

func (s *Store) Update(ctx context.Context, a Absence) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE absences
    SET name = $1, type = $2, sub_type = $3, record_type = $4,
        absence_hours = $5, work_days = $6, business_year = $7,
        start_date = $8, end_date = $9, status = $10, approver_id = $11,
        approved_by = $12, approved_at = $13, reason = $14,
        observations = $15, has_attachments = $16, updated_at = now()
    WHERE id = $17 AND deleted_at IS NULL
  `, a.Name, a.Type, nullable(a.SubType), a.RecordType, a.AbsenceHours,
		a.WorkDays, a.BusinessYear, a.StartDate, a.EndDate, a.Status,
		a.ApproverID, nullable(a.ApprovedBy), a.ApprovedAt, nullable(a.Reason),
		nullable(a.Observations), a.HasAttachments, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE absences SET deleted_at = now(), updated_at = now()
    WHERE id = $1 AND deleted_at IS NULL
  `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetHasAttachments(ctx context.Context, id string, has bool) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE absences SET has_attachments = $1, updated_at = now()
    WHERE id = $2 AND deleted_at IS NULL
  `, has, id)
	return err
}

func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]Absence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+absenceColumns+`
    FROM absences
    WHERE id = ANY($1) AND deleted_at IS NULL
  `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAbsences(rows)
}

// BulkUpdateStatus applies one status to a chunk of ids. Moving back to
// PENDING clears the approval bookkeeping.
func (s *Store) BulkUpdateStatus(ctx context.Context, ids []string, status Status, approvedBy string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if status == StatusPending {
		_, err := s.DB.Exec(ctx, `
      UPDATE absences
      SET status = $1, approved_by = NULL, approved_at = NULL, updated_at = now()
      WHERE id = ANY($2) AND deleted_at IS NULL
    `, status, ids)
		return err
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE absences
    SET status = $1, approved_by = $2, approved_at = $3, updated_at = now()
    WHERE id = ANY($4) AND deleted_at IS NULL
  `, status, approvedBy, now, ids)
	return err
}

type ListFilter struct {
	UserID   string
	Statuses []Status
	Year     string
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Absence, int, error) {
	where := " WHERE deleted_at IS NULL"
	args := []any{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		where += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if filter.Year != "" {
		args = append(args, filter.Year)
		where += fmt.Sprintf(" AND business_year = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM absences"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + absenceColumns + " FROM absences" + where + " ORDER BY start_date DESC"
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectAbsences(rows)
	return out, total, err
}

// ListOverlapping returns non-deleted absences intersecting [from, to].
func (s *Store) ListOverlapping(ctx context.Context, from, to time.Time) ([]Absence, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+absenceColumns+`
    FROM absences
    WHERE deleted_at IS NULL AND start_date <= $2 AND end_date >= $1
    ORDER BY start_date
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAbsences(rows)
}

// MarkCompleted moves approved absences past their end date to DONE and
// returns how many rows changed.
func (s *Store) MarkCompleted(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE absences
    SET status = $1, updated_at = now()
    WHERE status = $2 AND end_date < $3 AND deleted_at IS NULL
  `, StatusDone, StatusApproved, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) HolidaysBetween(ctx context.Context, from, to time.Time) (HolidaySet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date FROM holidays WHERE date >= $1 AND date <= $2
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(HolidaySet)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		set[DateKey(date)] = true
	}
	return set, rows.Err()
}

type Holiday struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Region string    `json:"region,omitempty"`
}

func (s *Store) ListHolidays(ctx context.Context) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, name, region FROM holidays ORDER BY date
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.Region); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) CreateHoliday(ctx context.Context, date time.Time, name, region string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (date, name, region)
    VALUES ($1,$2,$3)
    RETURNING id
  `, date, name, region).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeleteHoliday(ctx context.Context, holidayID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE id = $1", holidayID)
	return err
}

func collectAbsences(rows pgx.Rows) ([]Absence, error) {
	var out []Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
