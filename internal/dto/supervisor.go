package dto

import "github.com/noah-isme/agreements-api/internal/models"

// SupervisorRequest creates a supervisor record for an existing supervisor-role user.
type SupervisorRequest struct {
	UserID          string                  `json:"user_id" validate:"required,uuid"`
	Code            string                  `json:"code" validate:"required,max=50"`
	Specialty       string                  `json:"specialty" validate:"max=200"`
	ExperienceYears int                     `json:"experience_years" validate:"gte=0,lte=80"`
	Status          models.SupervisorStatus `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	JoinedOn        string                  `json:"joined_on" validate:"omitempty,datetime=2006-01-02"`
}

// SupervisorUpdateRequest patches a supervisor; nil fields are left unchanged.
type SupervisorUpdateRequest struct {
	Code            *string                  `json:"code" validate:"omitempty,max=50"`
	Specialty       *string                  `json:"specialty" validate:"omitempty,max=200"`
	ExperienceYears *int                     `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
	Status          *models.SupervisorStatus `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// AssignAgreementRequest links an agreement to a supervisor.
type AssignAgreementRequest struct {
	AgreementID string `json:"agreement_id" validate:"required,uuid"`
}

// AlertRequest is a free-text message sent to a supervisor.
type AlertRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// Workload is the report tally for one supervisor.
type Workload struct {
	SupervisorID string `json:"supervisor_id"`
	models.ReportTally
}

// SupervisorSummary is one row of the supervisor listing.
type SupervisorSummary struct {
	models.SupervisorDetail
	FullName   string             `json:"full_name"`
	Initials   string             `json:"initials"`
	Agreements []models.Agreement `json:"agreements"`
	Workload   models.ReportTally `json:"workload"`
}

// SupervisorProfile is the full supervisor detail view.
type SupervisorProfile struct {
	SupervisorSummary
	Reports      []models.Report         `json:"reports"`
	Evaluations  []models.EvaluationView `json:"evaluations"`
	AverageScore *float64                `json:"average_score,omitempty"`
}
