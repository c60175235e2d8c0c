package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anvith/gripstream/internal/calibration"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// CalibrationRecord is a stored calibration row.
type CalibrationRecord struct {
	ID                string
	WallID            string
	Method            calibration.Method
	Document          calibration.Document
	ReprojectionError float64
	Active            bool
	CreatedAt         time.Time
}

// CalibrationRepository provides access to stored calibrations.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save inserts a calibration and, when it is active, atomically
// deactivates any previously active calibration for the same wall.
// Walls are recalibrated by superseding, never by mutating.
func (r *CalibrationRepository) Save(c *calibration.Calibration) error {
	doc := c.ToDocument()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if c.Active {
		if _, err := tx.Exec(
			`UPDATE calibrations SET is_active = 0 WHERE wall_id = ? AND is_active = 1`,
			c.WallID,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO calibrations (id, wall_id, method, document, reprojection_error, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.WallID, string(c.Method), string(data), c.ReprojectionError, c.Active, time.Now(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Active loads the active calibration for a wall. ErrNotFound means
// the wall has never been calibrated (or the calibration was
// deactivated), which is fatal for starting a pipeline.
func (r *CalibrationRepository) Active(wallID string) (*calibration.Calibration, error) {
	rec, err := r.scanOne(
		`SELECT id, wall_id, method, document, reprojection_error, is_active, created_at
		 FROM calibrations WHERE wall_id = ? AND is_active = 1`,
		wallID,
	)
	if err != nil {
		return nil, err
	}

	c, err := calibration.FromDocument(rec.Document)
	if err != nil {
		return nil, err
	}
	c.ID = rec.ID
	c.WallID = rec.WallID
	return c, nil
}

// List returns every calibration stored for a wall, newest first.
func (r *CalibrationRepository) List(wallID string) ([]CalibrationRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, wall_id, method, document, reprojection_error, is_active, created_at
		 FROM calibrations WHERE wall_id = ? ORDER BY created_at DESC`,
		wallID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalibrationRecord
	for rows.Next() {
		rec, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CalibrationRepository) scanOne(query string, args ...any) (CalibrationRecord, error) {
	rec, err := scanCalibration(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return CalibrationRecord{}, ErrNotFound
	}
	return rec, err
}

func scanCalibration(row rowScanner) (CalibrationRecord, error) {
	var rec CalibrationRecord
	var method, document string
	if err := row.Scan(&rec.ID, &rec.WallID, &method, &document,
		&rec.ReprojectionError, &rec.Active, &rec.CreatedAt); err != nil {
		return CalibrationRecord{}, err
	}
	rec.Method = calibration.Method(method)

	doc, err := calibration.UnmarshalDocument([]byte(document))
	if err != nil {
		return CalibrationRecord{}, err
	}
	rec.Document = doc
	return rec, nil
}
