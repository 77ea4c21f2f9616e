package dto

import domainuser "rentgate/internal/domain/user"

type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

type Contact struct {
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
}

func MapUser(u *domainuser.User) User {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return User{ID: string(u.ID), Email: u.Email, Name: u.Name, Roles: roles}
}
