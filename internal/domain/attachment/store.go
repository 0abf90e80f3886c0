package attachment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/querier"
)

var ErrNotFound = errors.New("attachment not found")

type Attachment struct {
	ID         string    `json:"id"`
	AbsenceID  string    `json:"absenceId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{DB: tx}
}

func (s *Store) Insert(ctx context.Context, absenceID, fileName, mimeType, uploadedBy string, data []byte) (Attachment, error) {
	a := Attachment{
		ID:         uuid.NewString(),
		AbsenceID:  absenceID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  int64(len(data)),
		UploadedBy: uploadedBy,
	}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO absence_attachments (id, absence_id, file_name, mime_type, size_bytes, uploaded_by, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, a.ID, a.AbsenceID, a.FileName, a.MimeType, a.SizeBytes, a.UploadedBy, data).Scan(&a.CreatedAt)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func (s *Store) ListByAbsence(ctx context.Context, absenceID string) ([]Attachment, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, absence_id, file_name, mime_type, size_bytes, uploaded_by, created_at
		FROM absence_attachments
		WHERE absence_id = $1
		ORDER BY created_at
	`, absenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.AbsenceID, &a.FileName, &a.MimeType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Data loads the metadata and the raw bytes for a download.
func (s *Store) Data(ctx context.Context, id string) (Attachment, []byte, error) {
	var a Attachment
	var data []byte
	err := s.DB.QueryRow(ctx, `
		SELECT id, absence_id, file_name, mime_type, size_bytes, uploaded_by, created_at, data
		FROM absence_attachments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.AbsenceID, &a.FileName, &a.MimeType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, nil, ErrNotFound
		}
		return Attachment{}, nil, err
	}
	return a, data, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM absence_attachments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByAbsence(ctx context.Context, absenceID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM absence_attachments WHERE absence_id = $1", absenceID)
	return err
}

func (s *Store) CountByAbsence(ctx context.Context, absenceID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM absence_attachments WHERE absence_id = $1", absenceID).Scan(&n)
	return n, err
}
