package domain

// Role is the caller's role as reported by the auth layer.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Privileged reports whether the role sees all rows regardless of ownership.
// Both project and task visibility checks go through here so the two
// predicates cannot drift apart.
func (r Role) Privileged() bool {
	return r == RoleAdmin
}
