package gitlab

import (
	"fmt"
	"net/url"
	"strconv"
)

type Scope string

const (
	ScopeAssignedToMe Scope = "assigned_to_me"
	ScopeCreatedByMe  Scope = "created_by_me"
	ScopeReviewsForMe Scope = "reviews_for_me"
	ScopeAll          Scope = "all"
)

type State string

const (
	StateOpened State = "opened"
	StateMerged State = "merged"
	StateClosed State = "closed"
	StateAll    State = "all"
)

const DefaultPerPage = 20

// Query describes one merge-request list request. Results are always
// ordered by last update, newest first.
type Query struct {
	Search  string
	Scope   Scope
	State   State
	PerPage int
}

// ParseScope validates a user-supplied scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAssignedToMe, ScopeCreatedByMe, ScopeReviewsForMe, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid scope %q (expected assigned_to_me, created_by_me, reviews_for_me or all)", s)
}

// ParseState validates a user-supplied state string.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateOpened, StateMerged, StateClosed, StateAll:
		return State(s), nil
	}
	return "", fmt.Errorf("invalid state %q (expected opened, merged, closed or all)", s)
}

// Deferred reports whether this query must not be dispatched: an
// unscoped query with no search text would scan the whole instance
// unranked.
func (q Query) Deferred() bool {
	return q.Scope == ScopeAll && q.Search == ""
}

// Values builds the query string for GET /api/v4/merge_requests.
// state=all means "no state filter" and is omitted rather than sent
// literally; empty optional params are never sent as empty strings.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("order_by", "updated_at")
	v.Set("sort", "desc")

	if q.Scope != "" {
		v.Set("scope", string(q.Scope))
	}
	if q.State != "" && q.State != StateAll {
		v.Set("state", string(q.State))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
		v.Set("in", "title")
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}

	return v
}

// Fingerprint is a stable cache key for this query.
func (q Query) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%d|%s", q.Scope, q.State, q.PerPage, q.Search)
}
