package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	cases := []struct {
		first, last, username, want string
	}{
		{"Ana", "Gomez", "agomez", "AG"},
		{"", "", "jdoe123", "JD"},
		{"ana", "", "agomez", "A"},
		{"", "gómez", "agomez", "G"},
		{"  ", "", "x", "X"},
		{" ana", " gomez", "agomez", "AG"},
		{"", "", "  jd", "JD"},
		{"Élodie", "Ñúñez", "en", "ÉÑ"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Initials(tc.first, tc.last, tc.username), "%q %q %q", tc.first, tc.last, tc.username)
	}
}

func TestFullNameOrUsername(t *testing.T) {
	assert.Equal(t, "Ana Gomez", FullNameOrUsername("Ana", "Gomez", "agomez"))
	assert.Equal(t, "Ana", FullNameOrUsername("Ana", " ", "agomez"))
	assert.Equal(t, "agomez", FullNameOrUsername("", "", "agomez"))
	assert.Equal(t, "AG", User{FirstName: "Ana", LastName: "Gomez"}.Initials())
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, RoleSupervisor.Valid())
	assert.False(t, UserRole("guest").Valid())
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
		wantOffset         int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize, 0},
		{"second page", 2, 10, 2, 10, 10},
		{"size capped", 1, 500, 1, MaxPageSize, 0},
		{"page capped", math.MaxInt, 20, MaxPage, 20, (MaxPage - 1) * 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, size, offset := PageWindow(tc.page, tc.size)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantSize, size)
			assert.Equal(t, tc.wantOffset, offset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}
