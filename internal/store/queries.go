package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/domain"
)

const selectColumns = `session_id, custom_name, pinned, archived,
	continuation_session_id, initial_commit_head, permission_mode,
	summary, project_path, file_path, message_count, total_duration_ms,
	model, last_scanned_at_ms, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.SessionRecord, error) {
	var (
		r                domain.SessionRecord
		pinned, archived int
	)
	err := row.Scan(
		&r.SessionID, &r.CustomName, &pinned, &archived,
		&r.ContinuationSessionID, &r.InitialCommitHead, &r.PermissionMode,
		&r.Summary, &r.ProjectPath, &r.FilePath, &r.MessageCount, &r.TotalDurationMs,
		&r.Model, &r.LastScannedAtMs, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Pinned = pinned != 0
	r.Archived = archived != 0
	return &r, nil
}

// Lookup returns the record for a session, or (nil, nil) when the session
// was never stored. It performs no writes.
func (s *Store) Lookup(sessionID string) (*domain.SessionRecord, error) {
	row := s.db.QueryRow("SELECT "+selectColumns+" FROM sessions WHERE session_id = ?", sessionID)
	record, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	return record, nil
}

// Get returns the record for a session, inserting a default row first when
// the session is unknown. Callers can treat the store as a total function.
func (s *Store) Get(sessionID string) (*domain.SessionRecord, error) {
	record, err := s.Lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	now := nowRFC3339()
	def := defaultRecord(sessionID, now)
	_, err = s.db.Exec(`
		INSERT INTO sessions (session_id, permission_mode, model, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		sessionID, def.PermissionMode, def.Model, def.Version, def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}
	s.touchLastUpdated(now)

	// Re-read instead of returning def: a concurrent writer may have won the
	// insert race with different contents.
	return s.Lookup(sessionID)
}

// UpsertUserFields merges the non-nil fields of update into the session's
// user preferences and returns the resulting record. The row is initialized
// with defaults first when absent. Indexed fields are never touched.
func (s *Store) UpsertUserFields(sessionID string, update *domain.SessionUpdate) (*domain.SessionRecord, error) {
	if update == nil || update.IsZero() {
		return s.Get(sessionID)
	}
	if _, err := s.Get(sessionID); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	if update.CustomName != nil {
		sets = append(sets, "custom_name = ?")
		args = append(args, *update.CustomName)
	}
	if update.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, boolToInt(*update.Pinned))
	}
	if update.Archived != nil {
		sets = append(sets, "archived = ?")
		args = append(args, boolToInt(*update.Archived))
	}
	if update.ContinuationSessionID != nil {
		sets = append(sets, "continuation_session_id = ?")
		args = append(args, *update.ContinuationSessionID)
	}
	if update.InitialCommitHead != nil {
		sets = append(sets, "initial_commit_head = ?")
		args = append(args, *update.InitialCommitHead)
	}
	if update.PermissionMode != nil {
		sets = append(sets, "permission_mode = ?")
		args = append(args, *update.PermissionMode)
	}

	now := nowRFC3339()
	sets = append(sets, "version = ?", "updated_at = ?")
	args = append(args, schemaVersion, now, sessionID)

	query := "UPDATE sessions SET " + strings.Join(sets, ", ") + " WHERE session_id = ?"
	if _, err := s.db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	s.touchLastUpdated(now)
	return s.Lookup(sessionID)
}

// UpsertResult reports one batch item's outcome: Created is true when the
// session row did not exist before the batch.
type UpsertResult struct {
	SessionID string
	Created   bool
}

// UpsertIndexedBatch writes scanner output in one transaction. New sessions
// are inserted with default user preferences; existing rows have only their
// indexed columns overwritten, so user renames survive a re-index. The
// last_scanned_at_ms column never regresses. On any failure the whole batch
// rolls back.
func (s *Store) UpsertIndexedBatch(items []domain.IndexedMetadata) ([]UpsertResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := existingIDs(tx, items)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sessions (
			session_id, permission_mode,
			summary, project_path, file_path, message_count, total_duration_ms,
			model, last_scanned_at_ms, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			summary = excluded.summary,
			project_path = excluded.project_path,
			file_path = excluded.file_path,
			message_count = excluded.message_count,
			total_duration_ms = excluded.total_duration_ms,
			model = excluded.model,
			last_scanned_at_ms = MAX(last_scanned_at_ms, excluded.last_scanned_at_ms),
			version = excluded.version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare batch upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := nowRFC3339()
	results := make([]UpsertResult, 0, len(items))
	for _, item := range items {
		createdAt := item.FirstTimestamp
		updatedAt := item.LastTimestamp
		if updatedAt == "" {
			updatedAt = now
		}
		if createdAt == "" {
			createdAt = updatedAt
		}
		model := item.Model
		if model == "" {
			model = domain.DefaultModel
		}

		_, err := stmt.Exec(
			item.SessionID, domain.DefaultPermissionMode,
			item.Summary, item.ProjectPath, item.FilePath,
			item.MessageCount, item.TotalDurationMs,
			model, item.LastScannedAtMs, schemaVersion, createdAt, updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert session %s: %w", item.SessionID, err)
		}
		results = append(results, UpsertResult{
			SessionID: item.SessionID,
			Created:   !existing[item.SessionID],
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	s.touchLastUpdated(now)

	log.Debug().Int("items", len(items)).Msg("indexed batch committed")
	return results, nil
}

// existingIDs returns which of the batch's session ids already have rows.
func existingIDs(tx *sql.Tx, items []domain.IndexedMetadata) (map[string]bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
	args := make([]any, len(items))
	for i, item := range items {
		args[i] = item.SessionID
	}

	rows, err := tx.Query("SELECT session_id FROM sessions WHERE session_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	existing := make(map[string]bool, len(items))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// Delete removes a session row. Files on disk are never touched.
// Returns domain.ErrSessionNotFound when the row does not exist.
func (s *Store) Delete(sessionID string) error {
	result, err := s.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	s.touchLastUpdated(nowRFC3339())

	log.Info().Str("session_id", sessionID).Msg("deleted session record")
	return nil
}

// List returns the sessions matching the query plus the total match count.
// The total honors the filters but ignores limit and offset.
func (s *Store) List(q domain.ListQuery) ([]domain.SessionRecord, int, error) {
	var (
		where []string
		args  []any
	)
	if q.ProjectPath != "" {
		where = append(where, "project_path = ?")
		args = append(args, q.ProjectPath)
	}
	if q.Archived != nil {
		where = append(where, "archived = ?")
		args = append(args, boolToInt(*q.Archived))
	}
	if q.Pinned != nil {
		where = append(where, "pinned = ?")
		args = append(args, boolToInt(*q.Pinned))
	}
	if q.HasContinuation != nil {
		if *q.HasContinuation {
			where = append(where, "continuation_session_id != ''")
		} else {
			where = append(where, "continuation_session_id = ''")
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	sortColumn := "updated_at"
	if q.SortBy == domain.SortByCreated {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if q.Order == domain.OrderAsc {
		direction = "ASC"
	}

	query := "SELECT " + selectColumns + " FROM sessions" + whereClause +
		" ORDER BY " + sortColumn + " " + direction
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ArchiveAll marks every unarchived session archived in one statement and
// returns the number of rows affected.
func (s *Store) ArchiveAll() (int64, error) {
	now := nowRFC3339()
	result, err := s.db.Exec(
		"UPDATE sessions SET archived = 1, updated_at = ? WHERE archived = 0", now)
	if err != nil {
		return 0, fmt.Errorf("failed to archive sessions: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		s.touchLastUpdated(now)
	}

	log.Info().Int64("affected", affected).Msg("archived all sessions")
	return affected, nil
}

// Stats summarizes the store: row count, database file size and the last
// write time recorded in metadata.
func (s *Store) Stats() (domain.StoreStats, error) {
	var stats domain.StoreStats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.Count); err != nil {
		return stats, fmt.Errorf("failed to count sessions: %w", err)
	}

	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'last_updated'").Scan(&stats.LastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}

	if s.dbPath != "" {
		if info, err := os.Stat(s.dbPath); err == nil {
			stats.ByteSize = info.Size()
		}
	}
	return stats, nil
}

// LastScannedTimes returns every session's recorded scan mtime, keyed by
// session id. Sessions never scanned are omitted.
func (s *Store) LastScannedTimes() (map[string]int64, error) {
	rows, err := s.db.Query("SELECT session_id, last_scanned_at_ms FROM sessions WHERE last_scanned_at_ms > 0")
	if err != nil {
		return nil, fmt.Errorf("failed to read scan times: %w", err)
	}
	defer func() { _ = rows.Close() }()

	times := make(map[string]int64)
	for rows.Next() {
		var (
			id string
			ms int64
		)
		if err := rows.Scan(&id, &ms); err != nil {
			return nil, err
		}
		times[id] = ms
	}
	return times, rows.Err()
}
