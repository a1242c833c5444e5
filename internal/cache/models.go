package cache

import (
	"database/sql"
	"time"
)

// MergeRequest is one cached list row, already merged with its resolved
// approval flag.
type MergeRequest struct {
	ID             int
	IID            int
	ProjectID      int
	Title          string
	State          string
	Author         string
	SourceBranch   string
	TargetBranch   string
	Draft          bool
	PipelineStatus string
	Reviewer       string
	Approved       bool
	UpdatedAt      time.Time
	WebURL         string
}

// Snapshot is the last successful result for one query fingerprint.
type Snapshot struct {
	QueryFP   string
	FetchedAt time.Time
	Items     []MergeRequest
}

// SnapshotSummary is a snapshot header without its rows.
type SnapshotSummary struct {
	QueryFP   string
	FetchedAt time.Time
	ItemCount int
}

type FetchLog struct {
	ID           int64
	FetchedAt    time.Time
	QueryFP      string
	ItemsFound   int
	ErrorMessage sql.NullString
	DurationMs   sql.NullInt64
}
