package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicatePending is returned when a second PENDING case is inserted for the same tuple.
	ErrDuplicatePending = errors.New("a pending case already exists for this appeal")
	// ErrNotPending is returned when a verdict is applied to a case that is already closed.
	ErrNotPending = errors.New("case is not pending")
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT NOT NULL PRIMARY KEY,
	game TEXT NOT NULL,
	appealer_discord_id TEXT NOT NULL,
	appealer_roblox_id TEXT NOT NULL,
	appeal_platform TEXT NOT NULL,
	appeal_verdict TEXT NOT NULL DEFAULT 'PENDING',
	appeal_reason TEXT NOT NULL,
	punishment_type TEXT NOT NULL,
	punishment_reason TEXT NOT NULL,
	video_url TEXT,
	channel_id TEXT NOT NULL,
	appealed_at DATETIME NOT NULL,
	closed_at DATETIME,
	cleaned_up_at DATETIME,
	verdict_reason TEXT,
	verdict_by TEXT,
	CHECK ((appeal_verdict = 'PENDING') = (closed_at IS NULL)),
	CHECK (cleaned_up_at IS NULL OR closed_at IS NOT NULL)
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_cases_single_pending
	ON cases (game, punishment_type, appealer_discord_id, appeal_platform)
	WHERE appeal_verdict = 'PENDING';
CREATE INDEX IF NOT EXISTS ix_cases_channel ON cases (channel_id);
CREATE INDEX IF NOT EXISTS ix_cases_appealer ON cases (appealer_discord_id, appealer_roblox_id);
CREATE INDEX IF NOT EXISTS ix_cases_cleanup ON cases (closed_at) WHERE cleaned_up_at IS NULL;

CREATE TABLE IF NOT EXISTS guild_configs (
	guild_id TEXT NOT NULL,
	config_key TEXT NOT NULL,
	config_value TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (guild_id, config_key)
);

CREATE TABLE IF NOT EXISTS message_logs (
	message_id TEXT NOT NULL PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id),
	author_id TEXT NOT NULL,
	author_name TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	edited_at DATETIME
);
CREATE INDEX IF NOT EXISTS ix_message_logs_case ON message_logs (case_id, created_at);

CREATE TABLE IF NOT EXISTS access_code_blacklist (
	access_code TEXT NOT NULL PRIMARY KEY,
	issued_by TEXT NOT NULL,
	issued_at DATETIME NOT NULL
);`

// Store persists cases, guild settings, mirrored messages and revoked access codes.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to case database: %w", err)
	}
	// sqlite serializes writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create case tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}
