// Package auth contains domain-level types for actor identity and roles.
// It is pure and free of framework/adapter concerns. Actor identity is
// threaded explicitly through every facade call; there is no ambient
// request-scoped user state.
package auth

// Role represents an actor's authorization role.
// Keep string form for easy persistence and header transport.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTranslator Role = "translator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid returns true if the Role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleTranslator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AdminTier returns true for roles allowed to see the full job set and
// perform administrative lifecycle actions.
func (r Role) AdminTier() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is the authenticated principal performing an operation. The
// surrounding API layer resolves it; the engine only consumes it.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the actor holds an admin-tier role.
func (a Actor) IsAdmin() bool {
	return a.Role.AdminTier()
}
