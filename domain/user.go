package domain

// RoleUser is the only role assigned at creation. Role assignment is
// first-write-wins and never merged on later logins.
const RoleUser = "user"

// User represents an account record keyed by email.
type User struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}
