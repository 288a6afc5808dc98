package models

import "time"

// SupervisorStatus is the employment standing of a supervisor.
type SupervisorStatus string

const (
	SupervisorActive    SupervisorStatus = "active"
	SupervisorInactive  SupervisorStatus = "inactive"
	SupervisorSuspended SupervisorStatus = "suspended"
)

// Supervisor is a staff member linked one-to-one with a user account.
type Supervisor struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"user_id"`
	Code            string           `db:"code" json:"code"`
	Specialty       string           `db:"specialty" json:"specialty"`
	ExperienceYears int              `db:"experience_years" json:"experience_years"`
	Status          SupervisorStatus `db:"status" json:"status"`
	JoinedOn        time.Time        `db:"joined_on" json:"joined_on"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// SupervisorDetail joins a supervisor with the names of its user account.
type SupervisorDetail struct {
	Supervisor
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// Initials derives avatar initials from the linked user.
func (d SupervisorDetail) Initials() string {
	return Initials(d.FirstName, d.LastName, d.Username)
}

// FullName returns the display name of the linked user.
func (d SupervisorDetail) FullName() string {
	return FullNameOrUsername(d.FirstName, d.LastName, d.Username)
}

// SupervisorFilter captures list filters.
type SupervisorFilter struct {
	Status *SupervisorStatus
	Search string
}

// AssignmentLink associates a supervisor with an agreement it oversees.
type AssignmentLink struct {
	SupervisorID string    `db:"supervisor_id" json:"supervisor_id"`
	AgreementID  string    `db:"agreement_id" json:"agreement_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
