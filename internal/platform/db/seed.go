package db

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureSettings(ctx, pool); err != nil {
		return err
	}
	if cfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	return nil
}

func ensureSettings(ctx context.Context, pool *pgxpool.Pool) error {
	year := strconv.Itoa(time.Now().UTC().Year())
	_, err := pool.Exec(ctx, `
    INSERT INTO settings (id, current_year, max_hours_per_day, default_vacation_days)
    VALUES (1, $1, 8, 22)
    ON CONFLICT (id) DO NOTHING
  `, year)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	var defaultDays float64
	if err := pool.QueryRow(ctx, "SELECT default_vacation_days FROM settings WHERE id = 1").Scan(&defaultDays); err != nil {
		defaultDays = 22
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (id, email, password_hash, name, role, status, auto_approve,
      current_year_vacation_days, prev_year_vacation_days)
    VALUES ($1, $2, $3, 'Administrator', $4, 'ACTIVE', true, $5, 0)
  `, uuid.NewString(), email, hash, auth.RoleAdmin, defaultDays)
	return err
}
