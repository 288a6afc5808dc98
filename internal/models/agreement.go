package models

import "time"

// AgreementType classifies an agreement.
type AgreementType string

const (
	AgreementFramework  AgreementType = "framework"
	AgreementInternship AgreementType = "internship"
	AgreementWelfare    AgreementType = "welfare"
)

// AgreementTypes lists every type in display order.
var AgreementTypes = []AgreementType{AgreementFramework, AgreementInternship, AgreementWelfare}

// AgreementStatus is the stored lifecycle status of an agreement.
type AgreementStatus string

const (
	StatusActive        AgreementStatus = "active"
	StatusAboutToExpire AgreementStatus = "about-to-expire"
	StatusExpired       AgreementStatus = "expired"
	StatusInReview      AgreementStatus = "in-review"
	StatusLegal         AgreementStatus = "legal"
	StatusSigning       AgreementStatus = "signing"
	StatusApproved      AgreementStatus = "approved"
	StatusRejected      AgreementStatus = "rejected"
)

// ExpiryWindowDays is the inclusive horizon within which an agreement is about to expire.
const ExpiryWindowDays = 60

// Temporal reports whether the status is one the calendar can move
// (active, about-to-expire, expired) as opposed to a workflow status.
func (s AgreementStatus) Temporal() bool {
	switch s {
	case StatusActive, StatusAboutToExpire, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s AgreementStatus) Valid() bool {
	switch s {
	case StatusInReview, StatusLegal, StatusSigning, StatusApproved, StatusRejected:
		return true
	}
	return s.Temporal()
}

// Valid reports whether t is a known agreement type.
func (t AgreementType) Valid() bool {
	for _, known := range AgreementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Agreement is an institutional agreement with an external counterparty.
type Agreement struct {
	ID             string          `db:"id" json:"id"`
	Counterparty   string          `db:"counterparty" json:"counterparty"`
	Type           AgreementType   `db:"type" json:"type"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	ExpirationDate time.Time       `db:"expiration_date" json:"expiration_date"`
	Status         AgreementStatus `db:"status" json:"status"`
	SupervisorID   *string         `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Description    string          `db:"description" json:"description"`
	FilePath       *string         `db:"file_path" json:"-"`
	FileMimeType   *string         `db:"file_mime_type" json:"file_mime_type,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

const secondsPerDay = 24 * 60 * 60

// DaysRemaining returns whole calendar days from today until expiration; negative once past.
// today is expected to be a calendar date as produced by CalendarDate.
// Unix seconds are compared directly since time.Duration overflows past roughly 292 years.
func (a Agreement) DaysRemaining(today time.Time) int {
	exp := dateOnly(a.ExpirationDate)
	return int((exp.Unix() - dateOnly(today).Unix()) / secondsPerDay)
}

// IsAboutToExpire reports 0 <= days remaining <= ExpiryWindowDays.
func (a Agreement) IsAboutToExpire(today time.Time) bool {
	d := a.DaysRemaining(today)
	return d >= 0 && d <= ExpiryWindowDays
}

// IsExpired reports days remaining < 0.
func (a Agreement) IsExpired(today time.Time) bool {
	return a.DaysRemaining(today) < 0
}

// DerivedStatus maps a temporal stored status onto the calendar and leaves workflow statuses untouched.
func (a Agreement) DerivedStatus(today time.Time) AgreementStatus {
	if !a.Status.Temporal() {
		return a.Status
	}
	switch {
	case a.IsExpired(today):
		return StatusExpired
	case a.IsAboutToExpire(today):
		return StatusAboutToExpire
	default:
		return StatusActive
	}
}

// HasFile reports whether an attachment is stored.
func (a Agreement) HasFile() bool {
	return a.FilePath != nil && *a.FilePath != ""
}

// AgreementView decorates an agreement with supervisor names and read-time derived fields.
type AgreementView struct {
	Agreement
	SupervisorFirstName *string         `db:"supervisor_first_name" json:"-"`
	SupervisorLastName  *string         `db:"supervisor_last_name" json:"-"`
	SupervisorUsername  *string         `db:"supervisor_username" json:"-"`
	SupervisorName      string          `db:"-" json:"supervisor_name,omitempty"`
	HasFile             bool            `db:"-" json:"has_file"`
	DaysRemaining       int             `db:"-" json:"days_remaining"`
	IsAboutToExpire     bool            `db:"-" json:"is_about_to_expire"`
	IsExpired           bool            `db:"-" json:"is_expired"`
	ComputedStatus      AgreementStatus `db:"-" json:"computed_status"`
}

// Decorate fills the derived fields for the given calendar date.
func (v *AgreementView) Decorate(today time.Time) {
	v.DaysRemaining = v.Agreement.DaysRemaining(today)
	v.IsAboutToExpire = v.Agreement.IsAboutToExpire(today)
	v.IsExpired = v.Agreement.IsExpired(today)
	v.ComputedStatus = v.Agreement.DerivedStatus(today)
	v.HasFile = v.Agreement.HasFile()
	if v.SupervisorUsername != nil {
		v.SupervisorName = FullNameOrUsername(deref(v.SupervisorFirstName), deref(v.SupervisorLastName), *v.SupervisorUsername)
	}
}

// AgreementFilter captures list filters. StartFrom/StartTo bound the start date inclusively.
type AgreementFilter struct {
	Status    *AgreementStatus
	Type      *AgreementType
	StartFrom *time.Time
	StartTo   *time.Time
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AgreementCounters tallies agreements by stored temporal status.
type AgreementCounters struct {
	Total         int `db:"total" json:"total"`
	Active        int `db:"active" json:"active"`
	AboutToExpire int `db:"about_to_expire" json:"about_to_expire"`
	Expired       int `db:"expired" json:"expired"`
}

// TypeCount is one bucket of the agreement type distribution.
type TypeCount struct {
	Type  AgreementType `db:"type" json:"type"`
	Count int           `db:"count" json:"count"`
}

// StatusChange records one reconciliation of a stored temporal status.
type StatusChange struct {
	AgreementID  string          `json:"agreement_id"`
	Counterparty string          `json:"counterparty"`
	From         AgreementStatus `json:"from"`
	To           AgreementStatus `json:"to"`
}

// CalendarDate returns midnight UTC of t's calendar date as observed in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
