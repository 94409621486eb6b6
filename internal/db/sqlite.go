package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"intake-assistant/pkg"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps profile records in a local SQLite file.  It is meant for
// single-node deployments and development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath and ensures
// the schema exists.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent turns.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		phone_number TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		age TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		medical_history TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'en',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_updated_at ON users(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindProfile returns the record for phone, or pkg.ErrNotFound.
func (s *SQLiteStore) FindProfile(ctx context.Context, phone string) (*pkg.Record, error) {
	query := `
		SELECT phone_number, name, age, gender, medical_history, language, created_at, updated_at
		FROM users WHERE phone_number = ?`

	var rec pkg.Record
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, phone).Scan(
		&rec.PhoneNumber, &rec.Name, &rec.Age, &rec.Gender,
		&rec.MedicalHistory, &rec.Language, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// CreateProfile inserts a new record; a duplicate phone number is an error.
func (s *SQLiteStore) CreateProfile(ctx context.Context, rec *pkg.Record) error {
	lang := rec.Language
	if lang == "" {
		lang = pkg.DefaultLanguage
	}
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO users (phone_number, name, age, gender, medical_history, language, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PhoneNumber, rec.Name, rec.Age, rec.Gender, rec.MedicalHistory, lang,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create profile %s: already exists", rec.PhoneNumber)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	rec.Language = lang
	rec.CreatedAt = time.Unix(now.Unix(), 0)
	rec.UpdatedAt = rec.CreatedAt
	return nil
}

// UpdateHistory overwrites the medical history blob for phone.
func (s *SQLiteStore) UpdateHistory(ctx context.Context, phone, history string) error {
	return s.update(ctx, "update history",
		`UPDATE users SET medical_history = ?, updated_at = ? WHERE phone_number = ?`,
		history, phone)
}

// UpdateLanguage sets the preferred language for phone.
func (s *SQLiteStore) UpdateLanguage(ctx context.Context, phone, language string) error {
	return s.update(ctx, "update language",
		`UPDATE users SET language = ?, updated_at = ? WHERE phone_number = ?`,
		language, phone)
}

func (s *SQLiteStore) update(ctx context.Context, op, query, value, phone string) error {
	res, err := s.db.ExecContext(ctx, query, value, time.Now().Unix(), phone)
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
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
