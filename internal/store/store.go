// Package store persists the session index in an embedded SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/cui-project/cui/internal/domain"
)

const schemaVersion = 2 // v2: added initial_commit_head and permission_mode columns

const dbFileName = "session-info.db"

// MemoryDir is the config-dir value that selects a non-persistent store.
const MemoryDir = ":memory:"

// Store is the session metadata store. It tolerates a single writer plus
// many readers; WAL journaling keeps readers off the indexer's batch lock.
type Store struct {
	db     *sql.DB
	dbPath string // empty for memory stores
}

// Open opens (creating if needed) the session database inside dir and
// migrates its schema forward. The literal dir value ":memory:" yields a
// non-persistent store; it is pinned to one pooled connection so every
// statement sees the same in-memory database.
func Open(dir string) (*Store, error) {
	var (
		db     *sql.DB
		dbPath string
		err    error
	)

	if dir == MemoryDir {
		db, err = sql.Open("sqlite", MemoryDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open memory database: %w", err)
		}
		db.SetMaxOpenConns(1)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
		dbPath = filepath.Join(dir, dbFileName)
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("failed to set pragma")
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info().Str("db", s.describePath()).Int("schema_version", schemaVersion).Msg("session store opened")
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) describePath() string {
	if s.dbPath == "" {
		return MemoryDir
	}
	return s.dbPath
}

// sessionColumns is the canonical column set. Migration adds any of these
// missing from an existing table; order matters nowhere else.
var sessionColumns = []struct {
	name string
	def  string
}{
	{"custom_name", "TEXT NOT NULL DEFAULT ''"},
	{"pinned", "INTEGER NOT NULL DEFAULT 0"},
	{"archived", "INTEGER NOT NULL DEFAULT 0"},
	{"continuation_session_id", "TEXT NOT NULL DEFAULT ''"},
	{"initial_commit_head", "TEXT NOT NULL DEFAULT ''"},
	{"permission_mode", "TEXT NOT NULL DEFAULT 'default'"},
	{"summary", "TEXT NOT NULL DEFAULT ''"},
	{"project_path", "TEXT NOT NULL DEFAULT ''"},
	{"file_path", "TEXT NOT NULL DEFAULT ''"},
	{"message_count", "INTEGER NOT NULL DEFAULT 0"},
	{"total_duration_ms", "INTEGER NOT NULL DEFAULT 0"},
	{"model", "TEXT NOT NULL DEFAULT 'Unknown'"},
	{"last_scanned_at_ms", "INTEGER NOT NULL DEFAULT 0"},
	{"version", "INTEGER NOT NULL DEFAULT 0"},
	{"created_at", "TEXT NOT NULL DEFAULT ''"},
	{"updated_at", "TEXT NOT NULL DEFAULT ''"},
}

// migrate brings the schema forward. Migrations are additive only: the
// canonical tables are created if absent and any missing column is added
// with ALTER TABLE, so the store opens against any earlier schema without
// dropping data.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			custom_name TEXT NOT NULL DEFAULT '',
			pinned INTEGER NOT NULL DEFAULT 0,
			archived INTEGER NOT NULL DEFAULT 0,
			continuation_session_id TEXT NOT NULL DEFAULT '',
			initial_commit_head TEXT NOT NULL DEFAULT '',
			permission_mode TEXT NOT NULL DEFAULT 'default',
			summary TEXT NOT NULL DEFAULT '',
			project_path TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			message_count INTEGER NOT NULL DEFAULT 0,
			total_duration_ms INTEGER NOT NULL DEFAULT 0,
			model TEXT NOT NULL DEFAULT 'Unknown',
			last_scanned_at_ms INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	var currentVersion int
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	existing, err := s.tableColumns("sessions")
	if err != nil {
		return err
	}
	for _, col := range sessionColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE sessions ADD COLUMN %s %s", col.name, col.def)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
		log.Info().Str("column", col.name).Msg("added missing sessions column")
	}

	indexes := `
		CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_project_path ON sessions(project_path);
	`
	if _, err := s.db.Exec(indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	now := nowRFC3339()
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', ?)", now); err != nil {
		return err
	}
	if currentVersion < schemaVersion {
		if currentVersion > 0 {
			log.Info().Int("from", currentVersion).Int("to", schemaVersion).Msg("migrated session store schema")
		}
		if _, err := s.db.Exec(
			"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// tableColumns returns the existing column names of a table.
func (s *Store) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// touchLastUpdated records store write activity in the metadata table.
func (s *Store) touchLastUpdated(now string) {
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_updated', ?)", now); err != nil {
		log.Warn().Err(err).Msg("failed to touch metadata.last_updated")
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// defaultRecord is the row shape Get inserts for an unknown session.
func defaultRecord(sessionID, now string) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:      sessionID,
		PermissionMode: domain.DefaultPermissionMode,
		Model:          domain.DefaultModel,
		Version:        schemaVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
