package absence

import (
	"testing"
	"time"
)

func TestResolveApprovalAutoApprove(t *testing.T) {
	status, approver := ResolveApproval("u1", "m1", true)
	if status != StatusApproved || approver != "u1" {
		t.Fatalf("auto-approval must self-approve: %s %s", status, approver)
	}
}

func TestResolveApprovalManager(t *testing.T) {
	status, approver := ResolveApproval("u1", "m1", false)
	if status != StatusPending || approver != "m1" {
		t.Fatalf("expected pending on manager: %s %s", status, approver)
	}
}

func TestResolveApprovalNoManagerFallsBackToOwner(t *testing.T) {
	_, approver := ResolveApproval("u1", "", false)
	if approver != "u1" {
		t.Fatalf("ownerless approver fallback broken: %s", approver)
	}
}

func TestApproveOnlyFromPending(t *testing.T) {
	now := time.Now()
	a := vacation("a1", "u1", "2025", 2, StatusPending)

	approved, err := Approve(a, "m1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != StatusApproved || approved.ApprovedBy != "m1" || approved.ApprovedAt == nil {
		t.Fatalf("unexpected transition: %+v", approved)
	}

	for _, status := range []Status{StatusApproved, StatusDenied, StatusDone, StatusCancelled} {
		a.Status = status
		if _, err := Approve(a, "m1", now); err != ErrInvalidState {
			t.Fatalf("approve from %s must fail, got %v", status, err)
		}
	}
}

func TestDenyFromPendingOrApproved(t *testing.T) {
	now := time.Now()
	for _, status := range []Status{StatusPending, StatusApproved} {
		a := vacation("a1", "u1", "2025", 2, status)
		denied, err := Deny(a, "m1", now)
		if err != nil {
			t.Fatalf("deny from %s failed: %v", status, err)
		}
		if denied.Status != StatusDenied {
			t.Fatalf("unexpected status: %s", denied.Status)
		}
	}

	for _, status := range []Status{StatusDenied, StatusDone, StatusCancelled} {
		a := vacation("a1", "u1", "2025", 2, status)
		if _, err := Deny(a, "m1", now); err != ErrInvalidState {
			t.Fatalf("deny from %s must fail, got %v", status, err)
		}
	}
}

func TestCancelFromActiveStatuses(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusApproved, StatusDenied} {
		a := vacation("a1", "u1", "2025", 2, status)
		cancelled, err := Cancel(a)
		if err != nil {
			t.Fatalf("cancel from %s failed: %v", status, err)
		}
		if cancelled.Status != StatusCancelled {
			t.Fatalf("unexpected status: %s", cancelled.Status)
		}
	}
}

func TestCancelRejectsTerminalStatuses(t *testing.T) {
	for _, status := range []Status{StatusDone, StatusCancelled} {
		a := vacation("a1", "u1", "2025", 2, status)
		if _, err := Cancel(a); err != ErrInvalidState {
			t.Fatalf("cancel from %s must fail, got %v", status, err)
		}
	}
}

func TestEditResetsApprovalState(t *testing.T) {
	now := time.Now()
	old := vacation("a1", "u1", "2025", 2, StatusApproved)
	old.ApprovedBy = "m1"
	old.ApprovedAt = &now
	old.Observations = "keep me"

	updated := ApplyEditTransition(old, old, "m1", false)
	if updated.Status != StatusPending || updated.ApproverID != "m1" {
		t.Fatalf("edit must reset to pending: %+v", updated)
	}
	if updated.ApprovedBy != "" || updated.ApprovedAt != nil {
		t.Fatalf("approval bookkeeping must be cleared: %+v", updated)
	}
	if updated.Observations != "keep me" {
		t.Fatal("observations survive a non-denied edit")
	}
}

func TestEditAfterDenyClearsObservations(t *testing.T) {
	old := vacation("a1", "u1", "2025", 2, StatusDenied)
	old.Observations = "denied: overlapping team leave"

	updated := ApplyEditTransition(old, old, "m1", false)
	if updated.Observations != "" {
		t.Fatalf("denied observations must be cleared: %q", updated.Observations)
	}
}

func TestEditAutoApproveClassSkipsPending(t *testing.T) {
	old := vacation("a1", "u1", "2025", 2, StatusPending)
	updated := ApplyEditTransition(old, old, "m1", true)
	if updated.Status != StatusApproved || updated.ApproverID != "u1" {
		t.Fatalf("auto-approval edit broken: %+v", updated)
	}
}

func TestActorCanMutate(t *testing.T) {
	if !(Actor{UserID: "u1"}).CanMutate("u1") {
		t.Fatal("owner must be able to mutate")
	}
	if (Actor{UserID: "u2"}).CanMutate("u1") {
		t.Fatal("stranger must not mutate")
	}
	if !(Actor{UserID: "u2", ManagerOfOwner: true}).CanMutate("u1") {
		t.Fatal("manager must mutate reports")
	}
	if !(Actor{UserID: "u2", Admin: true}).CanMutate("u1") {
		t.Fatal("admin must mutate anyone")
	}
}

func TestBulkActionTargets(t *testing.T) {
	cases := []struct {
		action  BulkAction
		status  Status
		refunds bool
	}{
		{BulkApprove, StatusApproved, false},
		{BulkDeny, StatusDenied, true},
		{BulkPending, StatusPending, true},
	}
	for _, tc := range cases {
		status, ok := tc.action.TargetStatus()
		if !ok || status != tc.status {
			t.Fatalf("%s: unexpected target %s %v", tc.action, status, ok)
		}
		if tc.action.RefundsOnBulk() != tc.refunds {
			t.Fatalf("%s: refund flag mismatch", tc.action)
		}
	}
	if _, ok := BulkAction("CANCEL").TargetStatus(); ok {
		t.Fatal("unknown actions must be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:   false,
		StatusApproved:  false,
		StatusDenied:    false,
		StatusDone:      true,
		StatusCancelled: true,
	} {
		if status.Terminal() != want {
			t.Fatalf("%s: terminal = %v, want %v", status, status.Terminal(), want)
		}
	}
}
