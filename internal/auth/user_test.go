package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Acme Dental", User{CompanyName: "Acme Dental", Email: "a@b.co"}.DisplayName())
	assert.Equal(t, "a@b.co", User{Email: "a@b.co"}.DisplayName())
	assert.Equal(t, "User", User{}.DisplayName())
}

func TestUserInitials(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{CompanyName: "acme dental group"}, "AG"},
		{User{CompanyName: "  Solo  "}, "S"},
		{User{Email: "jane.doe@example.com"}, "JD"},
		{User{Email: "jane_doe42@example.com"}, "JD"},
		{User{Email: "jane@example.com"}, "J"},
		{User{Email: "1234@example.com"}, "1"},
		{User{}, "U"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.user.Initials(), "%+v", tc.user)
	}
}
