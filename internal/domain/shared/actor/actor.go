package actor

import "strings"

// Role is supplied by the session provider. Hosting is not a role of its own:
// a user acts as host for the listings they own.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// Actor is the opaque "current actor" consumed by the reservation core.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Valid() bool {
	return strings.TrimSpace(a.ID) != ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// Is reports whether the actor is the user with the given id.
func (a Actor) Is(userID string) bool {
	return a.Valid() && a.ID == userID
}

// System is used for transitions triggered by trusted integrations.
func System(name string) Actor {
	return Actor{ID: "system:" + name, Role: RoleSystem}
}

func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleHost:
		return RoleHost
	default:
		return RoleGuest
	}
}
