package absence

import "time"

type Type string

const (
	TypeVacation Type = "VACATION"
	TypeAbsence  Type = "ABSENCE"
)

type RecordType string

const (
	RecordDay     RecordType = "DAY"
	RecordHalfDay RecordType = "HALF_DAY"
	RecordHours   RecordType = "HOURS"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDenied    Status = "DENIED"
	StatusDone      Status = "DONE"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is accepted for the record.
// DONE and CANCELLED behave like APPROVED for ledger purposes; DONE
// additionally blocks edits by non-privileged roles.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

type Absence struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Name           string     `json:"name"`
	Type           Type       `json:"type"`
	SubType        string     `json:"subType,omitempty"`
	RecordType     RecordType `json:"recordType"`
	AbsenceHours   float64    `json:"absenceHours,omitempty"`
	WorkDays       float64    `json:"workDays,omitempty"`
	BusinessYear   string     `json:"businessYear"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	Status         Status     `json:"status"`
	ApproverID     string     `json:"approverId"`
	ApprovedBy     string     `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Observations   string     `json:"observations,omitempty"`
	HasAttachments bool       `json:"hasAttachments"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
