package db

// UpdateSchema creates the users and sessions tables
func (s *Storage) UpdateSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		telegram_id INTEGER UNIQUE,
		username TEXT,
		name TEXT,
		language_code TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMP NOT NULL
	);
	-- One row per generation run, kept until the reaper removes it
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		subject TEXT NOT NULL DEFAULT '',
		source_kind TEXT NOT NULL,
		source_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		warning TEXT NOT NULL DEFAULT '',
		cards TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	return nil
}
