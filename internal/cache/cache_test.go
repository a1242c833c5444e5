package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleItems() []MergeRequest {
	return []MergeRequest{
		{
			ID:             1,
			IID:            11,
			ProjectID:      5,
			Title:          "Add search",
			State:          "opened",
			Author:         "Alice",
			SourceBranch:   "feat-search",
			TargetBranch:   "main",
			PipelineStatus: "success",
			Reviewer:       "Bob",
			Approved:       true,
			UpdatedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			WebURL:         "https://gitlab.example.com/g/p/-/merge_requests/11",
		},
		{
			ID:        2,
			IID:       12,
			ProjectID: 5,
			Title:     "WIP refactor",
			State:     "opened",
			Author:    "Dave",
			Draft:     true,
			UpdatedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	fetchedAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveSnapshot("fp-a", fetchedAt, sampleItems()))

	snap, err := store.GetSnapshot("fp-a")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.True(t, snap.FetchedAt.Equal(fetchedAt))
	require.Len(t, snap.Items, 2)

	first := snap.Items[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Add search", first.Title)
	assert.True(t, first.Approved)
	assert.Equal(t, "Bob", first.Reviewer)
	assert.Equal(t, "success", first.PipelineStatus)

	second := snap.Items[1]
	assert.True(t, second.Draft)
	assert.False(t, second.Approved)
}

func TestSnapshotMissing(t *testing.T) {
	store := openTestStore(t)

	snap, err := store.GetSnapshot("never-stored")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveSnapshotReplacesWholesale(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveSnapshot("fp-a", time.Now(), sampleItems()))

	replacement := []MergeRequest{{
		ID:        3,
		IID:       13,
		ProjectID: 5,
		Title:     "Hotfix",
		State:     "merged",
		Author:    "Eve",
		UpdatedAt: time.Now().UTC(),
	}}
	require.NoError(t, store.SaveSnapshot("fp-a", time.Now(), replacement))

	snap, err := store.GetSnapshot("fp-a")
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].ID)
}

func TestSnapshotsAreIsolatedByFingerprint(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveSnapshot("fp-a", time.Now(), sampleItems()))
	require.NoError(t, store.SaveSnapshot("fp-b", time.Now(), sampleItems()[:1]))

	a, err := store.GetSnapshot("fp-a")
	require.NoError(t, err)
	b, err := store.GetSnapshot("fp-b")
	require.NoError(t, err)

	assert.Len(t, a.Items, 2)
	assert.Len(t, b.Items, 1)

	summaries, err := store.Snapshots()
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestFetchLog(t *testing.T) {
	store := openTestStore(t)

	last, err := store.GetLastFetch()
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, store.LogFetch("fp-a", 7, "", 120))
	require.NoError(t, store.LogFetch("fp-a", 0, "gateway timeout", 30))

	last, err = store.GetLastFetch()
	require.NoError(t, err)
	require.NotNil(t, last)

	assert.Equal(t, "fp-a", last.QueryFP)
	assert.Equal(t, 0, last.ItemsFound)
	assert.True(t, last.ErrorMessage.Valid)
	assert.Equal(t, "gateway timeout", last.ErrorMessage.String)
	assert.True(t, last.DurationMs.Valid)
	assert.EqualValues(t, 30, last.DurationMs.Int64)
}
