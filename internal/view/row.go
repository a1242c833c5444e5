package view

import (
	"fmt"
	"time"

	"mr-lens/internal/session"
)

// Row is one display-ready list line. Building rows is pure formatting;
// nothing here touches the network or the cache.
type Row struct {
	StateIcon      string    `json:"state_icon"`
	PipelineIcon   string    `json:"pipeline_icon,omitempty"`
	Title          string    `json:"title"`
	Badges         []string  `json:"badges,omitempty"`
	StateTag       string    `json:"state"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedTooltip string    `json:"updated_tooltip"`
	WebURL         string    `json:"web_url"`
}

// Build shapes items into rows, preserving order. Draft MRs are dropped
// unless includeDrafts is set.
func Build(items []session.Item, includeDrafts bool) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		if item.Draft && !includeDrafts {
			continue
		}
		rows = append(rows, buildRow(item, time.Now()))
	}
	return rows
}

func buildRow(item session.Item, now time.Time) Row {
	row := Row{
		StateIcon:      stateIcon(item.State),
		PipelineIcon:   pipelineIcon(item.PipelineStatus),
		Title:          item.Title,
		StateTag:       item.State,
		UpdatedAt:      item.UpdatedAt,
		UpdatedTooltip: updatedTooltip(item.UpdatedAt, now),
		WebURL:         item.WebURL,
	}

	if item.Approved {
		row.Badges = append(row.Badges, "APPROVED")
	}
	if item.Reviewer != "" {
		row.Badges = append(row.Badges, "reviewer: "+item.Reviewer)
	}

	return row
}

func stateIcon(state string) string {
	switch state {
	case "merged":
		return "◆"
	case "closed":
		return "✕"
	default:
		return "○"
	}
}

// pipelineIcon returns an icon for the statuses worth surfacing; other
// pipeline states render without one.
func pipelineIcon(status string) string {
	switch status {
	case "running":
		return "⟳"
	case "pending":
		return "…"
	case "success":
		return "✓"
	default:
		return ""
	}
}

func updatedTooltip(updated, now time.Time) string {
	return fmt.Sprintf("updated %s ago (%s)",
		humanizeDuration(now.Sub(updated)),
		updated.Local().Format("2006-01-02 15:04"))
}

func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch hours := int(d.Hours()); {
	case hours >= 24:
		return fmt.Sprintf("%dd", hours/24)
	case hours >= 1:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}
