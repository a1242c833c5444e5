package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mr-lens/internal/session"
)

func TestBuildRow(t *testing.T) {
	tests := []struct {
		name             string
		item             session.Item
		wantStateIcon    string
		wantPipelineIcon string
		wantBadges       []string
	}{
		{
			name: "approved open MR with running pipeline and reviewer",
			item: session.Item{
				Title:          "Add search",
				State:          "opened",
				PipelineStatus: "running",
				Reviewer:       "Bob",
				Approved:       true,
			},
			wantStateIcon:    "○",
			wantPipelineIcon: "⟳",
			wantBadges:       []string{"APPROVED", "reviewer: Bob"},
		},
		{
			name:          "merged MR",
			item:          session.Item{Title: "Hotfix", State: "merged"},
			wantStateIcon: "◆",
		},
		{
			name:          "closed MR",
			item:          session.Item{Title: "Abandoned", State: "closed"},
			wantStateIcon: "✕",
		},
		{
			name: "failed pipeline renders without an icon",
			item: session.Item{
				Title:          "Flaky",
				State:          "opened",
				PipelineStatus: "failed",
			},
			wantStateIcon: "○",
		},
		{
			name: "pending pipeline",
			item: session.Item{
				Title:          "Queued",
				State:          "opened",
				PipelineStatus: "pending",
			},
			wantStateIcon:    "○",
			wantPipelineIcon: "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Build([]session.Item{tt.item}, true)
			require.Len(t, rows, 1)
			row := rows[0]

			assert.Equal(t, tt.wantStateIcon, row.StateIcon)
			assert.Equal(t, tt.wantPipelineIcon, row.PipelineIcon)
			assert.Equal(t, tt.wantBadges, row.Badges)
			assert.Equal(t, tt.item.State, row.StateTag)
		})
	}
}

func TestBuildFiltersDrafts(t *testing.T) {
	items := []session.Item{
		{Title: "Ready", State: "opened"},
		{Title: "WIP", State: "opened", Draft: true},
	}

	rows := Build(items, false)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ready", rows[0].Title)

	rows = Build(items, true)
	assert.Len(t, rows, 2)
}

func TestBuildPreservesOrder(t *testing.T) {
	items := []session.Item{
		{Title: "newest", State: "opened"},
		{Title: "older", State: "opened"},
		{Title: "oldest", State: "opened"},
	}

	rows := Build(items, true)
	require.Len(t, rows, 3)
	assert.Equal(t, "newest", rows[0].Title)
	assert.Equal(t, "oldest", rows[2].Title)
}

func TestUpdatedTooltip(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		updated time.Time
		want    string
	}{
		{"minutes", now.Add(-10 * time.Minute), "updated 10m ago"},
		{"hours", now.Add(-3 * time.Hour), "updated 3h ago"},
		{"days", now.Add(-49 * time.Hour), "updated 2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := updatedTooltip(tt.updated, now)
			assert.Contains(t, got, tt.want)
		})
	}
}
