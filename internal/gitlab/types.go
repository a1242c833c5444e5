package gitlab

import "time"

// MergeRequest is a single entry from GET /api/v4/merge_requests.
// All fields are snapshots from the server at fetch time; the client
// never mutates them.
type MergeRequest struct {
	ID                int        `json:"id"`
	IID               int        `json:"iid"`
	ProjectID         int        `json:"project_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	State             string     `json:"state"` // "opened", "merged", "closed"
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	MergedAt          *time.Time `json:"merged_at"`
	Author            User       `json:"author"`
	Reviewers         []User     `json:"reviewers"`
	HeadPipeline      *Pipeline  `json:"head_pipeline"`
	SourceBranch      string     `json:"source_branch"`
	TargetBranch      string     `json:"target_branch"`
	Draft             bool       `json:"draft"`
	WorkInProgress    bool       `json:"work_in_progress"`
	ApprovalsRequired *int       `json:"approvals_required"`
	Upvotes           int        `json:"upvotes"`
	Downvotes         int        `json:"downvotes"`
	WebURL            string     `json:"web_url"`
}

// IsDraft reports whether the MR is marked draft under either the
// current or the legacy server field.
func (mr MergeRequest) IsDraft() bool {
	return mr.Draft || mr.WorkInProgress
}

type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type Pipeline struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	WebURL string `json:"web_url"`
}

// Approvals is the per-MR payload from
// GET /api/v4/projects/{id}/merge_requests/{iid}/approvals.
// ApprovalsRequired and ApprovalsLeft are pointers because servers with
// relaxed or absent approval rules omit them.
type Approvals struct {
	Approved          bool         `json:"approved"`
	ApprovalsRequired *int         `json:"approvals_required"`
	ApprovalsLeft     *int         `json:"approvals_left"`
	ApprovedBy        []ApprovedBy `json:"approved_by"`
}

type ApprovedBy struct {
	User User `json:"user"`
}

// HasHumanApproval collapses the inconsistent approval signals into one
// boolean. Some server configurations report approvals_left == 0 with no
// recorded approvers after rule relaxation, so a nonzero approver count is
// required in every path. With no approval rule configured (required == 0)
// the server's blanket approved=true on its own never counts.
func (a *Approvals) HasHumanApproval() bool {
	required := 0
	if a.ApprovalsRequired != nil {
		required = *a.ApprovalsRequired
	}
	approvers := len(a.ApprovedBy)

	if required > 0 && a.ApprovalsLeft != nil && *a.ApprovalsLeft == 0 && approvers > 0 {
		return true
	}

	// Rule metadata can be missing entirely; trust an explicit server
	// verdict only when at least one approver backs it.
	return a.Approved && approvers > 0
}
