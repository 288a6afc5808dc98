package dto

import (
	"io"
	"time"

	"github.com/noah-isme/agreements-api/internal/models"
)

// AgreementRequest is the create/update payload for an agreement. Dates use YYYY-MM-DD.
type AgreementRequest struct {
	Counterparty   string                 `json:"counterparty" validate:"required,max=200"`
	Type           models.AgreementType   `json:"type" validate:"required,oneof=framework internship welfare"`
	StartDate      string                 `json:"start_date" validate:"required,datetime=2006-01-02"`
	ExpirationDate string                 `json:"expiration_date" validate:"required,datetime=2006-01-02"`
	Status         models.AgreementStatus `json:"status" validate:"omitempty,oneof=active about-to-expire expired in-review legal signing approved rejected"`
	SupervisorID   *string                `json:"supervisor_id" validate:"omitempty,uuid"`
	Description    string                 `json:"description" validate:"max=5000"`
}

// AgreementList is the list payload with status counters alongside the page.
type AgreementList struct {
	Items    []models.AgreementView   `json:"items"`
	Counters models.AgreementCounters `json:"counters"`
}

// AgreementDetail bundles an agreement with its reports and activities.
type AgreementDetail struct {
	models.AgreementView
	Reports    []models.Report   `json:"reports"`
	Activities []models.Activity `json:"activities"`
}

// FileUpload carries an attachment received from a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SignedURL is a time-limited download link for an attachment.
type SignedURL struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileDownload is an opened attachment ready to stream. Callers close Body.
type FileDownload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// ExportFile is a rendered agreement register.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReconcileResult reports the outcome of one status reconciliation pass.
type ReconcileResult struct {
	Checked int                   `json:"checked"`
	Changes []models.StatusChange `json:"changes"`
}
