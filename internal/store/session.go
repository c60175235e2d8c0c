package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/anvith/gripstream/internal/session"
)

// SessionRecord is a stored summary of one climbing session.
type SessionRecord struct {
	ID             string
	WallID         string
	StartedAt      time.Time
	EndedAt        *time.Time
	Status         session.Status
	HoldsTotal     int
	HoldsCompleted int
}

// SessionRepository records summaries of completed sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Save upserts a session summary. The same session is saved once when
// it starts and again when it ends, so inserts replace by id.
func (r *SessionRepository) Save(rec SessionRecord) error {
	var endedAt any
	if rec.EndedAt != nil {
		endedAt = *rec.EndedAt
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, wall_id, started_at, ended_at, status, holds_total, holds_completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   ended_at = excluded.ended_at,
		   status = excluded.status,
		   holds_completed = excluded.holds_completed`,
		rec.ID, rec.WallID, rec.StartedAt, endedAt, string(rec.Status),
		rec.HoldsTotal, rec.HoldsCompleted,
	)
	return err
}

// Get returns a session summary by id.
func (r *SessionRepository) Get(id string) (SessionRecord, error) {
	rec, err := scanSession(r.db.QueryRow(
		`SELECT id, wall_id, started_at, ended_at, status, holds_total, holds_completed
		 FROM sessions WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	return rec, err
}

// List returns session summaries for a wall, newest first.
func (r *SessionRepository) List(wallID string) ([]SessionRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, wall_id, started_at, ended_at, status, holds_total, holds_completed
		 FROM sessions WHERE wall_id = ? ORDER BY started_at DESC`,
		wallID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var rec SessionRecord
	var status string
	var endedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.WallID, &rec.StartedAt, &endedAt,
		&status, &rec.HoldsTotal, &rec.HoldsCompleted); err != nil {
		return SessionRecord{}, err
	}
	rec.Status = session.Status(status)
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	return rec, nil
}
