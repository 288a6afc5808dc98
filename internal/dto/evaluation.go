package dto

// EvaluationRequest records a supervisor evaluation. Ratings are range-checked by the service.
type EvaluationRequest struct {
	AgreementID   string `json:"agreement_id" validate:"required,uuid"`
	Overall       int    `json:"overall"`
	Punctuality   int    `json:"punctuality"`
	ReportQuality int    `json:"report_quality"`
	Communication int    `json:"communication"`
	Observations  string `json:"observations" validate:"max=5000"`
}
