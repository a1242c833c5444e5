package cache

const Schema = `
CREATE TABLE IF NOT EXISTS merge_requests (
    query_fp TEXT NOT NULL,
    id INTEGER NOT NULL,
    iid INTEGER NOT NULL,
    project_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    state TEXT NOT NULL,
    author TEXT NOT NULL,
    source_branch TEXT NOT NULL,
    target_branch TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0,
    pipeline_status TEXT NOT NULL DEFAULT '',
    reviewer TEXT NOT NULL DEFAULT '',
    approved INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL,
    web_url TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (query_fp, id)
);
CREATE INDEX IF NOT EXISTS idx_mrs_query ON merge_requests(query_fp);

CREATE TABLE IF NOT EXISTS snapshots (
    query_fp TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL,
    item_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fetch_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fetched_at TEXT NOT NULL,
    query_fp TEXT NOT NULL,
    items_found INTEGER NOT NULL,
    error_message TEXT,
    duration_ms INTEGER
);
`

func InitSchema(s *Store) error {
	_, err := s.conn.Exec(Schema)
	if err != nil {
		return err
	}
	return nil
}
