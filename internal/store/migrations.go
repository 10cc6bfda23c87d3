package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "users: participants and their assigned condition",
		SQL: `
CREATE TABLE users (
    user_id     TEXT PRIMARY KEY,
    username    TEXT NOT NULL UNIQUE,
    condition   TEXT NOT NULL CHECK (condition IN ('SESSION_AUTO', 'SESSION_USER', 'PERSISTENT_AUTO', 'PERSISTENT_USER')),
    created_at  INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "sessions: at most one open session per user",
		SQL: `
CREATE TABLE sessions (
    session_id  TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    started_at  INTEGER NOT NULL,
    ended_at    INTEGER,

    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE INDEX idx_sessions_user       ON sessions(user_id, started_at DESC);
CREATE UNIQUE INDEX idx_sessions_open ON sessions(user_id) WHERE ended_at IS NULL;
`,
	},
	{
		Version:     3,
		Description: "messages: append-only conversation log per session",
		SQL: `
CREATE TABLE messages (
    msg_id      TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    role        TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content     TEXT NOT NULL,
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE INDEX idx_messages_session ON messages(session_id, created_at DESC);
`,
	},
	{
		Version:     4,
		Description: "memories: candidate and approved memories",
		SQL: `
CREATE TABLE memories (
    memory_id   TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    session_id  TEXT,
    text        TEXT NOT NULL,
    is_active   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,

    FOREIGN KEY (user_id)    REFERENCES users(user_id)       ON DELETE CASCADE,
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE SET NULL
);

CREATE INDEX idx_memories_user    ON memories(user_id, created_at DESC);
CREATE INDEX idx_memories_session ON memories(session_id);
`,
	},
	{
		Version:     5,
		Description: "events: append-only research event log",
		SQL: `
CREATE TABLE events (
    event_id    TEXT PRIMARY KEY,
    user_id     TEXT,
    type        TEXT NOT NULL,
    payload     TEXT,
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE SET NULL
);

CREATE INDEX idx_events_user ON events(user_id, created_at);
CREATE INDEX idx_events_type ON events(type);
`,
	},
	{
		Version:     6,
		Description: "survey_responses: questionnaire answers per user",
		SQL: `
CREATE TABLE survey_responses (
    response_id     TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    session_id      TEXT,
    survey_type     TEXT NOT NULL,
    question_id     TEXT NOT NULL,
    question_text   TEXT NOT NULL DEFAULT '',
    response_type   TEXT NOT NULL DEFAULT '',
    response_value  TEXT NOT NULL,
    created_at      INTEGER NOT NULL,

    FOREIGN KEY (user_id)    REFERENCES users(user_id)       ON DELETE CASCADE,
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE SET NULL
);

CREATE INDEX idx_survey_responses_user ON survey_responses(user_id, created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
