package dto

import "github.com/noah-isme/agreements-api/internal/models"

// ReportRequest is the payload for submitting a supervision report.
// Admins may submit on behalf of a supervisor user via SupervisorID.
type ReportRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Description  string  `json:"description" validate:"max=5000"`
	FilePath     string  `json:"file_path" validate:"max=500"`
	DeliveryDate string  `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	SupervisorID *string `json:"supervisor_id" validate:"omitempty,uuid"`
}

// ReviewReportRequest sets the outcome of a report review.
type ReviewReportRequest struct {
	Status       models.ReportStatus `json:"status" validate:"required,oneof=approved rejected pending"`
	Observations string              `json:"observations" validate:"max=5000"`
}
