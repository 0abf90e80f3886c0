package auth

import (
	"testing"
	"time"
)

// stubUserRow plays the users SELECT column list back through Scan. A nil
// jobTitle or managerID stands in for a SQL NULL: the driver only accepts
// NULL into pointer destinations, so the stub fails the same way pgx would
// if scanUser handed it a plain *string.
type stubUserRow struct {
	jobTitle  *string
	managerID *string
}

func (r stubUserRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = "user-1"
	*(dest[1].(*string)) = "ana@example.com"
	*(dest[2].(*string)) = "Ana Silva"
	*(dest[3].(*string)) = RoleEmployee
	*(dest[4].(**string)) = r.jobTitle
	*(dest[5].(**string)) = r.managerID
	*(dest[6].(*bool)) = true
	*(dest[7].(*string)) = "ACTIVE"
	*(dest[8].(*time.Time)) = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	return nil
}

func TestScanUserNullableColumns(t *testing.T) {
	u, err := scanUser(stubUserRow{})
	if err != nil {
		t.Fatalf("scan with NULL job_title and manager_id: %v", err)
	}
	if u.JobTitle != "" {
		t.Fatalf("expected empty job title, got %q", u.JobTitle)
	}
	if u.ManagerID != "" {
		t.Fatalf("expected empty manager id, got %q", u.ManagerID)
	}
	if u.ID != "user-1" || u.Name != "Ana Silva" || !u.AutoApprove {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestScanUserPopulatedColumns(t *testing.T) {
	title := "Engineer"
	manager := "user-9"
	u, err := scanUser(stubUserRow{jobTitle: &title, managerID: &manager})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if u.JobTitle != "Engineer" {
		t.Fatalf("expected job title, got %q", u.JobTitle)
	}
	if u.ManagerID != "user-9" {
		t.Fatalf("expected manager id, got %q", u.ManagerID)
	}
}
