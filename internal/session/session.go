package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mr-lens/internal/cache"
	"mr-lens/internal/gitlab"
)

// Lister is the part of gitlab.Client the session needs for the list
// query.
type Lister interface {
	ListMergeRequests(ctx context.Context, q gitlab.Query) ([]gitlab.MergeRequest, error)
}

// ApprovalResolver yields the per-MR approval mapping for a batch.
type ApprovalResolver interface {
	Resolve(ctx context.Context, mrs []gitlab.MergeRequest) map[int]bool
}

// Item is one display-ready list entry: a merge request merged with its
// resolved approval flag.
type Item struct {
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

// Result is the outcome of one list request.
type Result struct {
	Query     gitlab.Query
	Items     []Item
	FetchedAt time.Time

	// Deferred is set when the query was suppressed (unscoped with no
	// search text) and never dispatched.
	Deferred bool

	// Stale is set when the live fetch failed and Items came from the
	// snapshot cache instead; Err then carries the fetch failure.
	Stale bool
	Err   error
}

// Session drives one search surface: it fetches the list, resolves
// approvals for it, and keeps the most recent successful result so a
// failed refresh still has something to show.
type Session struct {
	client   Lister
	resolver ApprovalResolver
	store    *cache.Store // optional

	mu   sync.Mutex
	last map[string]*Result
}

func New(client Lister, resolver ApprovalResolver, store *cache.Store) *Session {
	return &Session{
		client:   client,
		resolver: resolver,
		store:    store,
		last:     make(map[string]*Result),
	}
}

// List performs one list request. Unscoped queries with no search text
// are never dispatched. On fetch failure the previous result for the
// same query (in-memory first, then the snapshot cache) is returned
// marked stale; the error is only fatal when there is nothing to fall
// back to.
func (s *Session) List(ctx context.Context, q gitlab.Query) (*Result, error) {
	if q.Deferred() {
		return &Result{Query: q, Deferred: true}, nil
	}

	fp := q.Fingerprint()
	start := time.Now()

	mrs, err := s.client.ListMergeRequests(ctx, q)
	if err != nil {
		s.logFetch(fp, 0, err, start)
		if prev := s.previous(fp); prev != nil {
			stale := *prev
			stale.Stale = true
			stale.Err = err
			return &stale, nil
		}
		return nil, fmt.Errorf("fetching merge requests: %w", err)
	}

	approvals := s.resolver.Resolve(ctx, mrs)

	items := make([]Item, len(mrs))
	for i, mr := range mrs {
		items[i] = newItem(mr, approvals[mr.ID])
	}

	result := &Result{
		Query:     q,
		Items:     items,
		FetchedAt: time.Now(),
	}

	s.logFetch(fp, len(items), nil, start)
	s.persist(fp, result)

	s.mu.Lock()
	s.last[fp] = result
	s.mu.Unlock()

	return result, nil
}

func newItem(mr gitlab.MergeRequest, approved bool) Item {
	item := Item{
		ID:           mr.ID,
		IID:          mr.IID,
		ProjectID:    mr.ProjectID,
		Title:        mr.Title,
		State:        mr.State,
		Author:       mr.Author.Name,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Draft:        mr.IsDraft(),
		Approved:     approved,
		UpdatedAt:    mr.UpdatedAt,
		WebURL:       mr.WebURL,
	}
	if mr.HeadPipeline != nil {
		item.PipelineStatus = mr.HeadPipeline.Status
	}
	if len(mr.Reviewers) > 0 {
		item.Reviewer = mr.Reviewers[0].Name
	}
	return item
}

// previous returns the most recent successful result for fp, preferring
// the in-memory copy over the snapshot cache.
func (s *Session) previous(fp string) *Result {
	s.mu.Lock()
	prev := s.last[fp]
	s.mu.Unlock()
	if prev != nil {
		return prev
	}

	if s.store == nil {
		return nil
	}

	snap, err := s.store.GetSnapshot(fp)
	if err != nil || snap == nil {
		return nil
	}

	items := make([]Item, len(snap.Items))
	for i, mr := range snap.Items {
		items[i] = Item{
			ID:             mr.ID,
			IID:            mr.IID,
			ProjectID:      mr.ProjectID,
			Title:          mr.Title,
			State:          mr.State,
			Author:         mr.Author,
			SourceBranch:   mr.SourceBranch,
			TargetBranch:   mr.TargetBranch,
			Draft:          mr.Draft,
			PipelineStatus: mr.PipelineStatus,
			Reviewer:       mr.Reviewer,
			Approved:       mr.Approved,
			UpdatedAt:      mr.UpdatedAt,
			WebURL:         mr.WebURL,
		}
	}

	return &Result{Items: items, FetchedAt: snap.FetchedAt}
}

func (s *Session) persist(fp string, result *Result) {
	if s.store == nil {
		return
	}

	rows := make([]cache.MergeRequest, len(result.Items))
	for i, item := range result.Items {
		rows[i] = cache.MergeRequest{
			ID:             item.ID,
			IID:            item.IID,
			ProjectID:      item.ProjectID,
			Title:          item.Title,
			State:          item.State,
			Author:         item.Author,
			SourceBranch:   item.SourceBranch,
			TargetBranch:   item.TargetBranch,
			Draft:          item.Draft,
			PipelineStatus: item.PipelineStatus,
			Reviewer:       item.Reviewer,
			Approved:       item.Approved,
			UpdatedAt:      item.UpdatedAt,
			WebURL:         item.WebURL,
		}
	}

	// Cache writes are best effort; the live result is already in hand.
	_ = s.store.SaveSnapshot(fp, result.FetchedAt, rows)
}

func (s *Session) logFetch(fp string, found int, fetchErr error, start time.Time) {
	if s.store == nil {
		return
	}

	errMsg := ""
	if fetchErr != nil {
		errMsg = fetchErr.Error()
	}
	_ = s.store.LogFetch(fp, found, errMsg, time.Since(start).Milliseconds())
}
