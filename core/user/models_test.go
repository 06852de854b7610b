package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolesFor(t *testing.T) {
	isAdmin := func(email string) bool { return email == "admin@tirgul.test" }

	tests := []struct {
		name      string
		email     string
		want      []string
		wantAdmin bool
	}{
		{name: "student", email: "student@tirgul.test", want: []string{RoleStudent}},
		{name: "admin", email: "admin@tirgul.test", want: []string{RoleAdmin, RoleStudent}, wantAdmin: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := RolesFor(tt.email, isAdmin)
			assert.Equal(t, tt.want, roles)

			usr := User{Email: tt.email, Roles: roles}
			assert.Equal(t, tt.wantAdmin, usr.IsAdmin())
			assert.True(t, usr.RoleStartsWith(RoleStudent))
		})
	}

	assert.Equal(t, []string{RoleStudent}, RolesFor("x@y.z", nil))
}
