package models

import "time"

// Activity is a scheduled task tied to an agreement.
type Activity struct {
	ID            string    `db:"id" json:"id"`
	AgreementID   string    `db:"agreement_id" json:"agreement_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	ResponsibleID *string   `db:"responsible_id" json:"responsible_id,omitempty"`
	Completed     bool      `db:"completed" json:"completed"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RecentActivity is an activity joined with its agreement counterparty for dashboards.
type RecentActivity struct {
	Activity
	Counterparty string `db:"counterparty" json:"counterparty"`
}
