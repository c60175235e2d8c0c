package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Calibrations table - one JSON document per computed calibration
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			wall_id TEXT NOT NULL,
			method TEXT NOT NULL CHECK(method IN ('fiducial', 'manualPoints')),
			document TEXT NOT NULL,
			reprojection_error REAL NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions table - summaries of completed wall sessions
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			wall_id TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			status TEXT NOT NULL CHECK(status IN ('started', 'completed')),
			holds_total INTEGER NOT NULL DEFAULT 0,
			holds_completed INTEGER NOT NULL DEFAULT 0
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_calibrations_wall_id ON calibrations(wall_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_wall_id ON sessions(wall_id)`,

		// At most one active calibration per wall
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_calibrations_active
			ON calibrations(wall_id) WHERE is_active = 1`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
