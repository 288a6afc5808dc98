package models

import "time"

// ReportStatus is the review state of a supervision report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// Report is a supervision report filed against an agreement. SupervisorID references the submitting user.
type Report struct {
	ID           string       `db:"id" json:"id"`
	AgreementID  string       `db:"agreement_id" json:"agreement_id"`
	SupervisorID string       `db:"supervisor_id" json:"supervisor_id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	FilePath     string       `db:"file_path" json:"file_path,omitempty"`
	Status       ReportStatus `db:"status" json:"status"`
	DeliveryDate time.Time    `db:"delivery_date" json:"delivery_date"`
	Observations string       `db:"observations" json:"observations"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ReportTally is the per-supervisor report workload.
type ReportTally struct {
	Total    int `db:"total" json:"total_reports"`
	Pending  int `db:"pending" json:"pending_reports"`
	Approved int `db:"approved" json:"approved_reports"`
}

// TallyReports counts the reports submitted by userID.
func TallyReports(reports []Report, userID string) ReportTally {
	var tally ReportTally
	for _, r := range reports {
		if r.SupervisorID != userID {
			continue
		}
		tally.Total++
		switch r.Status {
		case ReportPending:
			tally.Pending++
		case ReportApproved:
			tally.Approved++
		}
	}
	return tally
}
