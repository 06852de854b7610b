package user

import "strings"

// Roles
const (
	RoleAdmin   = "admin:"
	RoleStudent = "student:"
)

// User is the identity handed over by the auth provider.
// Users are not stored locally: ID is the provider's subject.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// RolesFor returns the roles of the user identified by email.
func RolesFor(email string, isAdminEmail func(string) bool) []string {
	if isAdminEmail != nil && isAdminEmail(email) {
		return []string{RoleAdmin, RoleStudent}
	}
	return []string{RoleStudent}
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}
