// Package store journals sessions and readings to SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doomscroll/doomscroll/pkg/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// Stats represents journal statistics
type Stats struct {
	Sessions      int     `json:"sessions"`
	TotalScrolls  uint64  `json:"totalScrolls"`
	TotalFeet     float64 `json:"totalFeet"`
	LongestScroll uint64  `json:"longestSession"`
	Readings      int     `json:"readings"`
}

// New opens (and creates if needed) the journal at dbPath
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			app_id TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			final_count INTEGER NOT NULL DEFAULT 0,
			final_feet REAL NOT NULL DEFAULT 0,
			landmark TEXT NOT NULL DEFAULT '',
			foreground_count INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			count INTEGER NOT NULL,
			feet REAL NOT NULL,
			landmark TEXT NOT NULL,
			bucket INTEGER NOT NULL,
			exceeded INTEGER NOT NULL DEFAULT 0,
			at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_readings_session ON readings(session_id, count)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// StartSession opens a new session for appID
func (s *Store) StartSession(appID string, at time.Time) (*models.Session, error) {
	sess := &models.Session{
		ID:        ulid.Make().String(),
		AppID:     appID,
		StartedAt: at.UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, app_id, started_at)
		VALUES (?, ?, ?)
	`, sess.ID, sess.AppID, sess.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return sess, nil
}

// RecordReading appends r to the session and updates its running totals
func (s *Store) RecordReading(sessionID string, r models.Reading) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO readings (session_id, count, feet, landmark, bucket, exceeded, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, int64(r.Count), r.Feet, r.Landmark, r.Bucket, r.Exceeded, r.At.UTC()); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE sessions
		SET final_count = MAX(final_count, ?), final_feet = MAX(final_feet, ?), landmark = ?
		WHERE id = ?
	`, int64(r.Count), r.Feet, r.Landmark, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown session %s", sessionID)
	}

	return tx.Commit()
}

// RecordForeground counts one foreground notification for the session
func (s *Store) RecordForeground(sessionID string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET foreground_count = foreground_count + 1 WHERE id = ?
	`, sessionID)
	return err
}

// EndSession marks the session closed
func (s *Store) EndSession(sessionID string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL
	`, at.UTC(), sessionID)
	return err
}

// LatestSession returns the most recently started session, or nil if the
// journal is empty
func (s *Store) LatestSession() (*models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, app_id, started_at, ended_at, final_count, final_feet, landmark, foreground_count
		FROM sessions
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)

	var sess models.Session
	var endedAt sql.NullTime
	var count int64
	err := row.Scan(&sess.ID, &sess.AppID, &sess.StartedAt, &endedAt,
		&count, &sess.Feet, &sess.Landmark, &sess.ForegroundCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.Count = uint64(count)
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// Readings returns up to limit readings of a session, newest first
func (s *Store) Readings(sessionID string, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT count, feet, landmark, bucket, exceeded, at
		FROM readings
		WHERE session_id = ?
		ORDER BY count DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var r models.Reading
		var count int64
		if err := rows.Scan(&count, &r.Feet, &r.Landmark, &r.Bucket, &r.Exceeded, &r.At); err != nil {
			return nil, err
		}
		r.Count = uint64(count)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// GetStats returns journal statistics
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	var total, longest int64
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(final_count), 0), COALESCE(SUM(final_feet), 0), COALESCE(MAX(final_count), 0)
		FROM sessions
	`)
	if err := row.Scan(&stats.Sessions, &total, &stats.TotalFeet, &longest); err != nil {
		return nil, err
	}
	stats.TotalScrolls = uint64(total)
	stats.LongestScroll = uint64(longest)

	row = s.db.QueryRow("SELECT COUNT(*) FROM readings")
	if err := row.Scan(&stats.Readings); err != nil {
		return nil, err
	}

	return stats, nil
}
