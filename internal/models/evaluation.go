package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 10
)

// ErrRatingOutOfRange is wrapped by Evaluation.Validate.
var ErrRatingOutOfRange = errors.New("rating out of range")

// Evaluation is a performance review of a supervisor for one agreement.
type Evaluation struct {
	ID            string    `db:"id" json:"id"`
	SupervisorID  string    `db:"supervisor_id" json:"supervisor_id"`
	EvaluatorID   string    `db:"evaluator_id" json:"evaluator_id"`
	AgreementID   string    `db:"agreement_id" json:"agreement_id"`
	Overall       int       `db:"overall" json:"overall"`
	Punctuality   int       `db:"punctuality" json:"punctuality"`
	ReportQuality int       `db:"report_quality" json:"report_quality"`
	Communication int       `db:"communication" json:"communication"`
	Observations  string    `db:"observations" json:"observations"`
	EvaluatedAt   time.Time `db:"evaluated_at" json:"evaluated_at"`
}

// AverageScore is the arithmetic mean of the four ratings.
func (e Evaluation) AverageScore() float64 {
	return float64(e.Overall+e.Punctuality+e.ReportQuality+e.Communication) / 4
}

// Validate checks each rating lies in [MinRating, MaxRating].
func (e Evaluation) Validate() error {
	var bad []string
	for _, r := range []struct {
		name  string
		value int
	}{
		{"overall", e.Overall},
		{"punctuality", e.Punctuality},
		{"report_quality", e.ReportQuality},
		{"communication", e.Communication},
	} {
		if r.value < MinRating || r.value > MaxRating {
			bad = append(bad, fmt.Sprintf("%s=%d", r.name, r.value))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrRatingOutOfRange, strings.Join(bad, ", "), MinRating, MaxRating)
	}
	return nil
}

// EvaluationView adds the computed average and the agreement counterparty.
type EvaluationView struct {
	Evaluation
	Counterparty string  `db:"counterparty" json:"counterparty"`
	Average      float64 `db:"-" json:"average_score"`
}
