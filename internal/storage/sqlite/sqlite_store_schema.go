package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// seq preserves insertion order; readers sort on it instead of timestamps
	// because several rows may share one clock reading.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			achievement_id INTEGER NOT NULL,
			earned_at_unix INTEGER NOT NULL,
			progress INTEGER NOT NULL,
			UNIQUE (user_id, achievement_id)
		);`,
		`CREATE TABLE IF NOT EXISTS certificates (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL,
			certificate_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			attempt_id INTEGER NOT NULL,
			quiz_title TEXT NOT NULL,
			score_percentage INTEGER NOT NULL,
			issued_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS question_banks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			tags TEXT NOT NULL,
			is_public INTEGER NOT NULL,
			randomize_questions INTEGER NOT NULL,
			randomize_options INTEGER NOT NULL,
			questions_per_quiz INTEGER NOT NULL,
			question_count INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_certificates_user ON certificates(user_id, seq DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
