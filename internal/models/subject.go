package models

type Role int

// Role constants, matching the "role" claim of access tokens
const (
	RoleStudent Role = 1
	RoleAdmin   Role = 2
)

// Subject represents an authenticated end user requesting media
type Subject struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"` // 1=Student, 2=Admin, default=1
}

// DisplayName returns the username, falling back to the email
func (s *Subject) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}

// IsAdmin reports whether the subject has the admin role
func (s *Subject) IsAdmin() bool {
	return s.Role == RoleAdmin
}
