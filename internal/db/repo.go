package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"intake-assistant/pkg"
)

// Repository stores profile records in Postgres.  When a Notifier is set,
// every successful write publishes the phone number on its channel.
type Repository struct {
	DB       *sql.DB
	Notifier *Notifier
	Logger   *slog.Logger
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB, notifier *Notifier, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{DB: db, Notifier: notifier, Logger: logger}
}

// FindProfile returns the record for phone, or pkg.ErrNotFound.
func (r *Repository) FindProfile(ctx context.Context, phone string) (*pkg.Record, error) {
	var rec pkg.Record
	err := r.DB.QueryRowContext(ctx,
		`SELECT phone_number, name, age, gender, medical_history, language, created_at, updated_at
         FROM users
         WHERE phone_number = $1`,
		phone,
	).Scan(&rec.PhoneNumber, &rec.Name, &rec.Age, &rec.Gender, &rec.MedicalHistory, &rec.Language, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &rec, nil
}

// CreateProfile inserts a new record.  An existing row for the same phone
// number is an error; records are never overwritten by creation.
func (r *Repository) CreateProfile(ctx context.Context, rec *pkg.Record) error {
	lang := rec.Language
	if lang == "" {
		lang = pkg.DefaultLanguage
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (phone_number, name, age, gender, medical_history, language)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		rec.PhoneNumber, rec.Name, rec.Age, rec.Gender, rec.MedicalHistory, lang,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	r.notify(ctx, rec.PhoneNumber)
	return nil
}

// UpdateHistory overwrites the medical history blob for phone.
func (r *Repository) UpdateHistory(ctx context.Context, phone, history string) error {
	return r.update(ctx, "update history",
		`UPDATE users SET medical_history = $1, updated_at = NOW() WHERE phone_number = $2`,
		history, phone)
}

// UpdateLanguage sets the preferred language for phone.
func (r *Repository) UpdateLanguage(ctx context.Context, phone, language string) error {
	return r.update(ctx, "update language",
		`UPDATE users SET language = $1, updated_at = NOW() WHERE phone_number = $2`,
		language, phone)
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *Repository) update(ctx context.Context, op, query, value, phone string) error {
	res, err := r.DB.ExecContext(ctx, query, value, phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, pkg.ErrNotFound)
	}
	r.notify(ctx, phone)
	return nil
}

// notify is best effort; a lost notification only delays dashboards.
func (r *Repository) notify(ctx context.Context, phone string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, phone); err != nil {
		r.Logger.Warn("profile notification failed", "phone_number", phone, "error", err)
	}
}
