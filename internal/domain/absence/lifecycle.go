package absence

import "time"

// Actor is the caller of a lifecycle transition, reduced to the capabilities
// the state machine cares about. The transport layer resolves roles and
// permissions into these flags before any ledger call runs.
type Actor struct {
	UserID string
	// Admin holds the administrative time-off permission.
	Admin bool
	// ManagerOfOwner is true when the actor is the absence owner's line
	// manager.
	ManagerOfOwner bool
}

// CanMutate implements the shared guard: owner, line manager, or admin.
func (a Actor) CanMutate(owner string) bool {
	return a.Admin || a.ManagerOfOwner || a.UserID == owner
}

// ResolveApproval returns the initial status and approver for an absence
// created (or re-submitted) by owner. Auto-approval-class users approve
// themselves; everyone else waits on their line manager.
func ResolveApproval(ownerID, managerID string, autoApprove bool) (Status, string) {
	if autoApprove {
		return StatusApproved, ownerID
	}
	approver := managerID
	if approver == "" {
		approver = ownerID
	}
	return StatusPending, approver
}

// Approve moves a pending absence to APPROVED. Vacation days were already
// debited at create/edit time, so approval has no ledger effect.
func Approve(a Absence, actorID string, now time.Time) (Absence, error) {
	if a.Status != StatusPending {
		return a, ErrInvalidState
	}
	a.Status = StatusApproved
	a.ApprovedBy = actorID
	a.ApprovedAt = &now
	return a, nil
}

// Deny moves a pending or approved absence to DENIED. Denying twice is
// rejected so the ledger refund cannot double-apply.
func Deny(a Absence, actorID string, now time.Time) (Absence, error) {
	if a.Status != StatusPending && a.Status != StatusApproved {
		return a, ErrInvalidState
	}
	a.Status = StatusDenied
	a.ApprovedBy = actorID
	a.ApprovedAt = &now
	return a, nil
}

// Cancel abandons a request. Terminal records (DONE, CANCELLED) cannot be
// cancelled; a DENIED record still can, it just carries no debit to refund.
func Cancel(a Absence) (Absence, error) {
	if a.Status.Terminal() {
		return a, ErrInvalidState
	}
	a.Status = StatusCancelled
	return a, nil
}

// ApplyEditTransition resets an edited absence the way a fresh submission
// would be: approver recomputed, status back to PENDING unless the owner is
// in the auto-approval class, approval bookkeeping cleared. A previously
// denied record also loses its observations, because denial implied a
// consumption of zero that the edit supersedes.
func ApplyEditTransition(old, updated Absence, managerID string, autoApprove bool) Absence {
	status, approver := ResolveApproval(updated.UserID, managerID, autoApprove)
	updated.Status = status
	updated.ApproverID = approver
	updated.ApprovedBy = ""
	updated.ApprovedAt = nil
	if old.Status == StatusDenied {
		updated.Observations = ""
	}
	return updated
}

// BulkAction names the three bulk-patch operations.
type BulkAction string

const (
	BulkApprove BulkAction = "APPROVE"
	BulkDeny    BulkAction = "DENY"
	BulkPending BulkAction = "PENDING"
)

func (a BulkAction) TargetStatus() (Status, bool) {
	switch a {
	case BulkApprove:
		return StatusApproved, true
	case BulkDeny:
		return StatusDenied, true
	case BulkPending:
		return StatusPending, true
	default:
		return "", false
	}
}

// RefundsOnBulk reports whether the action moves records out of approval
// context and therefore aggregates ledger refunds. Never on bulk approve.
func (a BulkAction) RefundsOnBulk() bool {
	return a == BulkDeny || a == BulkPending
}
