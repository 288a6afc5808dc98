package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSupervisor UserRole = "supervisor"
	RoleStudent    UserRole = "student"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleStudent:
		return true
	}
	return false
}

// ProfileStatus is the account standing recorded on a user profile.
type ProfileStatus string

const (
	ProfileActive   ProfileStatus = "active"
	ProfilePending  ProfileStatus = "pending"
	ProfileInactive ProfileStatus = "inactive"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Initials derives the avatar initials for the user.
func (u User) Initials() string {
	return Initials(u.FirstName, u.LastName, u.Username)
}

// DisplayName returns "First Last" or the username when both names are blank.
func (u User) DisplayName() string {
	return FullNameOrUsername(u.FirstName, u.LastName, u.Username)
}

// UserProfile extends a user with role and contact details. A user may have none.
type UserProfile struct {
	ID         string        `db:"id" json:"id"`
	UserID     string        `db:"user_id" json:"user_id"`
	Role       UserRole      `db:"role" json:"role"`
	Status     ProfileStatus `db:"status" json:"status"`
	Phone      string        `db:"phone" json:"phone"`
	Address    string        `db:"address" json:"address"`
	BirthDate  *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	LastAccess *time.Time    `db:"last_access" json:"last_access,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// UserWithProfile is a user row left-joined with its optional profile.
type UserWithProfile struct {
	User
	Role          *UserRole      `db:"role" json:"role"`
	ProfileStatus *ProfileStatus `db:"profile_status" json:"profile_status"`
	Phone         *string        `db:"phone" json:"phone,omitempty"`
	LastAccess    *time.Time     `db:"last_access" json:"last_access,omitempty"`
	Initials      string         `db:"-" json:"initials"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Status    *ProfileStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UserCounters summarises the user directory.
type UserCounters struct {
	Total             int `db:"total" json:"total"`
	ActiveSupervisors int `db:"active_supervisors" json:"active_supervisors"`
	Students          int `db:"students" json:"students"`
	Inactive          int `db:"inactive" json:"inactive"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*size far below int overflow and the OFFSET Postgres accepts.
	MaxPage = 1_000_000
)

// PageWindow normalises page and size and returns the row offset of the page.
func PageWindow(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size, (page - 1) * size
}

// Initials returns the uppercased first letters of first and last name. When
// only one name is present its letter is used alone; when both are blank the
// first two characters of the username are used. Names and username are trimmed
// first, so surrounding whitespace never becomes an initial and a whitespace-only
// name counts as blank.
func Initials(firstName, lastName, username string) string {
	first := firstRune(firstName)
	last := firstRune(lastName)
	switch {
	case first != "" || last != "":
		return strings.ToUpper(first + last)
	default:
		name := strings.TrimSpace(username)
		if utf8.RuneCountInString(name) > 2 {
			name = string([]rune(name)[:2])
		}
		return strings.ToUpper(name)
	}
}

// FullNameOrUsername joins the non-blank name parts, falling back to the username.
func FullNameOrUsername(firstName, lastName, username string) string {
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full == "" {
		return username
	}
	return full
}

func firstRune(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return string(unicode.ToUpper(r))
	}
	return ""
}
