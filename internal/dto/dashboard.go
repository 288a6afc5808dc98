package dto

import "github.com/noah-isme/agreements-api/internal/models"

// DashboardSummary is the aggregated home screen payload.
type DashboardSummary struct {
	Agreements        models.AgreementCounters `json:"agreements"`
	Reports           models.ReportTally       `json:"reports"`
	ActiveSupervisors int                      `json:"active_supervisors"`
	PendingProposals  int                      `json:"pending_proposals"`
	RecentActivities  []models.RecentActivity  `json:"recent_activities"`
	Expiring          []models.AgreementView   `json:"expiring"`
	TypeDistribution  []models.TypeCount       `json:"type_distribution"`
}
