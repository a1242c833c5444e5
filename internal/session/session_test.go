package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mr-lens/internal/cache"
	"mr-lens/internal/gitlab"
)

type fakeLister struct {
	mrs   []gitlab.MergeRequest
	err   error
	calls int
}

func (f *fakeLister) ListMergeRequests(ctx context.Context, q gitlab.Query) ([]gitlab.MergeRequest, error) {
	f.calls++
	return f.mrs, f.err
}

type fakeResolver struct {
	mapping map[int]bool
}

func (f *fakeResolver) Resolve(ctx context.Context, mrs []gitlab.MergeRequest) map[int]bool {
	return f.mapping
}

func testMRs() []gitlab.MergeRequest {
	return []gitlab.MergeRequest{
		{
			ID:           1,
			IID:          11,
			ProjectID:    5,
			Title:        "Add search",
			State:        "opened",
			Author:       gitlab.User{Name: "Alice"},
			Reviewers:    []gitlab.User{{Name: "Bob"}, {Name: "Carol"}},
			HeadPipeline: &gitlab.Pipeline{Status: "success"},
			UpdatedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:             2,
			IID:            12,
			ProjectID:      5,
			Title:          "WIP refactor",
			State:          "opened",
			Author:         gitlab.User{Name: "Dave"},
			WorkInProgress: true,
			UpdatedAt:      time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestListDeferredNeverDispatches(t *testing.T) {
	lister := &fakeLister{}
	sess := New(lister, &fakeResolver{}, nil)

	result, err := sess.List(context.Background(), gitlab.Query{Scope: gitlab.ScopeAll})
	require.NoError(t, err)

	assert.True(t, result.Deferred)
	assert.Empty(t, result.Items)
	assert.Zero(t, lister.calls, "deferred query must not hit the network")
}

func TestListMergesApprovals(t *testing.T) {
	lister := &fakeLister{mrs: testMRs()}
	resolver := &fakeResolver{mapping: map[int]bool{1: true}}
	sess := New(lister, resolver, nil)

	result, err := sess.List(context.Background(), gitlab.Query{Scope: gitlab.ScopeAssignedToMe, State: gitlab.StateOpened})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.False(t, result.Deferred)
	assert.False(t, result.Stale)

	first := result.Items[0]
	assert.True(t, first.Approved)
	assert.Equal(t, "Bob", first.Reviewer, "first reviewer wins")
	assert.Equal(t, "success", first.PipelineStatus)
	assert.Equal(t, "Alice", first.Author)

	second := result.Items[1]
	assert.False(t, second.Approved, "unresolved items render as not approved")
	assert.True(t, second.Draft, "legacy work_in_progress flag counts as draft")
	assert.Empty(t, second.PipelineStatus)
}

func TestListFallsBackToPreviousResult(t *testing.T) {
	lister := &fakeLister{mrs: testMRs()}
	sess := New(lister, &fakeResolver{}, nil)
	q := gitlab.Query{Scope: gitlab.ScopeAssignedToMe, State: gitlab.StateOpened}

	_, err := sess.List(context.Background(), q)
	require.NoError(t, err)

	lister.mrs = nil
	lister.err = errors.New("gateway timeout")

	result, err := sess.List(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, result.Stale)
	require.Error(t, result.Err)
	assert.Len(t, result.Items, 2)
}

func TestListFallsBackToSnapshotCache(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	q := gitlab.Query{Scope: gitlab.ScopeAssignedToMe, State: gitlab.StateOpened}

	// One session fetches successfully and persists a snapshot.
	warm := New(&fakeLister{mrs: testMRs()}, &fakeResolver{mapping: map[int]bool{1: true}}, store)
	_, err = warm.List(context.Background(), q)
	require.NoError(t, err)

	// A fresh session with a failing fetch falls back to the stored
	// snapshot.
	cold := New(&fakeLister{err: errors.New("connection refused")}, &fakeResolver{}, store)
	result, err := cold.List(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, result.Stale)
	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].Approved)
	assert.Equal(t, "Add search", result.Items[0].Title)
}

func TestListErrorWithoutFallback(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	sess := New(lister, &fakeResolver{}, nil)

	_, err := sess.List(context.Background(), gitlab.Query{Scope: gitlab.ScopeAssignedToMe})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
