package auth

import (
	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
)

// Authorized reports whether the identity's role is a member of the allowed
// set. An identity with no role is treated as the lowest-privilege role.
// Pure function, no I/O.
func Authorized(identity token.Identity, allowed ...users.Role) bool {
	role := users.Role(identity.Role)
	if role == "" {
		role = users.DefaultRole
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
