package gitlab

import (
	"context"
	"sync"
)

// ApprovalBatchLimit caps how many per-MR approval lookups a single
// list refresh issues.
const ApprovalBatchLimit = 25

// ApprovalsFetcher is the part of Client the resolver needs.
type ApprovalsFetcher interface {
	GetApprovals(ctx context.Context, projectID, iid int) (*Approvals, error)
}

// Resolver derives a per-MR "approved" boolean for a batch of merge
// requests. Only the first ApprovalBatchLimit items are looked up, all
// concurrently. A lookup that fails is left out of the mapping; the
// batch as a whole never fails.
//
// Starting a new batch supersedes the previous one: its in-flight
// requests are cancelled and its results discarded, so only the latest
// batch ever produces a mapping.
type Resolver struct {
	fetcher ApprovalsFetcher

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewResolver(fetcher ApprovalsFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve returns a mapping from merge-request ID to the resolved
// approval boolean. Items whose lookup failed are absent from the
// mapping. Returns nil if this batch was superseded before it settled.
func (r *Resolver) Resolve(ctx context.Context, mrs []MergeRequest) map[int]bool {
	r.mu.Lock()
	r.gen++
	myGen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	if len(mrs) > ApprovalBatchLimit {
		mrs = mrs[:ApprovalBatchLimit]
	}

	type lookup struct {
		id       int
		approved bool
		ok       bool
	}

	results := make(chan lookup, len(mrs))
	var wg sync.WaitGroup

	for _, mr := range mrs {
		wg.Add(1)
		go func(mr MergeRequest) {
			defer wg.Done()

			approvals, err := r.fetcher.GetApprovals(ctx, mr.ProjectID, mr.IID)
			if err != nil {
				// Unknown; the caller renders it as not approved.
				results <- lookup{ok: false}
				return
			}
			results <- lookup{id: mr.ID, approved: approvals.HasHumanApproval(), ok: true}
		}(mr)
	}

	wg.Wait()
	cancel()
	close(results)

	r.mu.Lock()
	superseded := r.gen != myGen
	r.mu.Unlock()
	if superseded {
		return nil
	}

	mapping := make(map[int]bool, len(mrs))
	for l := range results {
		if l.ok {
			mapping[l.id] = l.approved
		}
	}
	return mapping
}
