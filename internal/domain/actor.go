package domain

// Role enumerates the actor profiles.
type Role string

const (
	RoleSupervisor Role = "SUPERVISOR"
	RoleAgent      Role = "AGENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSupervisor || r == RoleAgent
}

// Actor is the resolved identity of the signed-in user. It lives for a
// single request and is rebuilt from storage on every authentication.
type Actor struct {
	ID            string
	DisplayName   string
	Email         string
	Role          Role
	AssignedAreas AreaSet
}

// IsSupervisor reports whether the actor has full access.
func (a *Actor) IsSupervisor() bool {
	return a != nil && a.Role == RoleSupervisor
}

// IsAgent reports whether the actor is area-scoped.
func (a *Actor) IsAgent() bool {
	return a != nil && a.Role == RoleAgent
}
