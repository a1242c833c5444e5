package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists the last successful list result per query so a failed
// refresh can still render something (stale-while-revalidate).
type Store struct {
	conn *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{
		conn: conn,
		path: path,
	}

	if err := InitSchema(s); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveSnapshot replaces the cached result for queryFP wholesale. Rows
// are never partially mutated; a reader sees either the old snapshot or
// the new one.
func (s *Store) SaveSnapshot(queryFP string, fetchedAt time.Time, items []MergeRequest) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM merge_requests WHERE query_fp = ?`, queryFP); err != nil {
		return fmt.Errorf("clearing previous snapshot: %w", err)
	}

	for i, mr := range items {
		_, err := tx.Exec(`
			INSERT INTO merge_requests (query_fp, id, iid, project_id, title, state, author,
			                            source_branch, target_branch, draft, pipeline_status,
			                            reviewer, approved, updated_at, web_url, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			queryFP, mr.ID, mr.IID, mr.ProjectID, mr.Title, mr.State, mr.Author,
			mr.SourceBranch, mr.TargetBranch, boolToInt(mr.Draft), mr.PipelineStatus,
			mr.Reviewer, boolToInt(mr.Approved), mr.UpdatedAt.Format(time.RFC3339), mr.WebURL, i,
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot row: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO snapshots (query_fp, fetched_at, item_count)
		VALUES (?, ?, ?)
		ON CONFLICT(query_fp) DO UPDATE SET
		    fetched_at = excluded.fetched_at,
		    item_count = excluded.item_count`,
		queryFP, fetchedAt.Format(time.RFC3339), len(items))
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}

	return tx.Commit()
}

// GetSnapshot returns the cached result for queryFP, or nil when none
// has been stored.
func (s *Store) GetSnapshot(queryFP string) (*Snapshot, error) {
	row := s.conn.QueryRow(`SELECT fetched_at FROM snapshots WHERE query_fp = ?`, queryFP)

	var fetchedAt string
	err := row.Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	snap := &Snapshot{QueryFP: queryFP}
	snap.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)

	rows, err := s.conn.Query(`
		SELECT id, iid, project_id, title, state, author, source_branch, target_branch,
		       draft, pipeline_status, reviewer, approved, updated_at, web_url
		FROM merge_requests WHERE query_fp = ? ORDER BY position`, queryFP)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mr MergeRequest
		var draft, approved int
		var updatedAt string

		err := rows.Scan(
			&mr.ID, &mr.IID, &mr.ProjectID, &mr.Title, &mr.State, &mr.Author,
			&mr.SourceBranch, &mr.TargetBranch, &draft, &mr.PipelineStatus,
			&mr.Reviewer, &approved, &updatedAt, &mr.WebURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}

		mr.Draft = draft == 1
		mr.Approved = approved == 1
		mr.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		snap.Items = append(snap.Items, mr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}

	return snap, nil
}

func (s *Store) LogFetch(queryFP string, itemsFound int, errMsg string, durationMs int64) error {
	var errMsgVal sql.NullString
	if errMsg != "" {
		errMsgVal = sql.NullString{String: errMsg, Valid: true}
	}

	_, err := s.conn.Exec(`
		INSERT INTO fetch_log (fetched_at, query_fp, items_found, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), queryFP, itemsFound, errMsgVal, durationMs)
	if err != nil {
		return fmt.Errorf("logging fetch: %w", err)
	}
	return nil
}

func (s *Store) GetLastFetch() (*FetchLog, error) {
	row := s.conn.QueryRow(`
		SELECT id, fetched_at, query_fp, items_found, error_message, duration_ms
		FROM fetch_log ORDER BY id DESC LIMIT 1`)

	var log FetchLog
	var fetchedAt string

	err := row.Scan(
		&log.ID, &fetchedAt, &log.QueryFP, &log.ItemsFound,
		&log.ErrorMessage, &log.DurationMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning fetch log: %w", err)
	}

	log.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
	return &log, nil
}

// Snapshots lists all stored snapshot headers, most recently fetched
// first.
func (s *Store) Snapshots() ([]SnapshotSummary, error) {
	rows, err := s.conn.Query(`
		SELECT query_fp, fetched_at, item_count
		FROM snapshots ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []SnapshotSummary
	for rows.Next() {
		var snap SnapshotSummary
		var fetchedAt string

		if err := rows.Scan(&snap.QueryFP, &fetchedAt, &snap.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot summary: %w", err)
		}

		snap.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	return snaps, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
