package auth

import "time"

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

// UserContext travels with the request after token verification.
type UserContext struct {
	UserID string
	Role   string
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	JobTitle    string    `json:"jobTitle,omitempty"`
	ManagerID   string    `json:"managerId,omitempty"`
	AutoApprove bool      `json:"autoApprove"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
