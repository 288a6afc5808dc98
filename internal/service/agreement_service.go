package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
	"github.com/noah-isme/agreements-api/pkg/export"
	"github.com/noah-isme/agreements-api/pkg/storage"
)

type agreementRepository interface {
	List(ctx context.Context, filter models.AgreementFilter) ([]models.AgreementView, int, error)
	ListAll(ctx context.Context, filter models.AgreementFilter) ([]models.AgreementView, error)
	Counters(ctx context.Context) (models.AgreementCounters, error)
	FindByID(ctx context.Context, id string) (*models.AgreementView, error)
	Create(ctx context.Context, agreement *models.Agreement) error
	Update(ctx context.Context, agreement *models.Agreement) error
	UpdateFile(ctx context.Context, id, path, mimeType string) error
	Delete(ctx context.Context, id string) error
	Expiring(ctx context.Context, from, to time.Time, limit int) ([]models.AgreementView, error)
	TypeDistribution(ctx context.Context) ([]models.TypeCount, error)
}

type agreementReportLister interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error)
}

type agreementActivityLister interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error)
}

type profileLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
}

// TableRenderer renders an export table into one file format.
type TableRenderer interface {
	Render(table export.Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// AgreementServiceConfig tunes agreement behaviour.
type AgreementServiceConfig struct {
	ExpiryWindowDays int
	Location         *time.Location
	MaxFileSize      int64
	AllowedMIMEs     []string
	ExportsEnabled   bool
	// DownloadPath prefixes generated download links, e.g. "/api/v1".
	DownloadPath string
}

// AgreementServiceParams groups constructor dependencies.
type AgreementServiceParams struct {
	Repo       agreementRepository
	Reports    agreementReportLister
	Activities agreementActivityLister
	Profiles   profileLookup
	Storage    *storage.LocalStorage
	Signer     *storage.SignedURLSigner
	Exporters  []TableRenderer
	Cache      *CacheService
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     AgreementServiceConfig
}

// AgreementService implements agreement use cases.
type AgreementService struct {
	repo       agreementRepository
	reports    agreementReportLister
	activities agreementActivityLister
	profiles   profileLookup
	storage    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	exporters  map[string]TableRenderer
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AgreementServiceConfig
	now        func() time.Time
}

// NewAgreementService constructs an AgreementService.
func NewAgreementService(params AgreementServiceParams) *AgreementService {
	cfg := params.Config
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = models.ExpiryWindowDays
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exporters := make(map[string]TableRenderer, len(params.Exporters))
	for _, e := range params.Exporters {
		exporters[e.Extension()] = e
	}
	return &AgreementService{
		repo:       params.Repo,
		reports:    params.Reports,
		activities: params.Activities,
		profiles:   params.Profiles,
		storage:    params.Storage,
		signer:     params.Signer,
		exporters:  exporters,
		cache:      params.Cache,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *AgreementService) today() time.Time {
	return models.CalendarDate(s.now(), s.cfg.Location)
}

func (s *AgreementService) decorate(items []models.AgreementView) []models.AgreementView {
	today := s.today()
	for i := range items {
		items[i].Decorate(today)
	}
	if items == nil {
		items = []models.AgreementView{}
	}
	return items
}

// List returns a page of agreements with derived fields and stored-status counters.
func (s *AgreementService) List(ctx context.Context, filter models.AgreementFilter) (*dto.AgreementList, *models.Pagination, error) {
	if err := checkPage(filter.Page); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list agreements")
	}
	counters, err := s.repo.Counters(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to count agreements")
	}
	return &dto.AgreementList{Items: s.decorate(items), Counters: counters}, pageOf(filter.Page, filter.PageSize, total), nil
}

// Get returns an agreement with its reports and activities, newest first.
func (s *AgreementService) Get(ctx context.Context, id string) (*dto.AgreementDetail, error) {
	agreement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByAgreement(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load agreement reports")
	}
	activities, err := s.activities.ListByAgreement(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load agreement activities")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return &dto.AgreementDetail{AgreementView: *agreement, Reports: reports, Activities: activities}, nil
}

func (s *AgreementService) find(ctx context.Context, id string) (*models.AgreementView, error) {
	agreement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	agreement.Decorate(s.today())
	return agreement, nil
}

// Create registers a new agreement.
func (s *AgreementService) Create(ctx context.Context, req dto.AgreementRequest) (*models.AgreementView, error) {
	agreement := &models.Agreement{ID: uuid.NewString()}
	if err := s.apply(ctx, agreement, req); err != nil {
		return nil, err
	}
	if agreement.Status == "" {
		agreement.Status = models.StatusActive
	}
	if err := s.repo.Create(ctx, agreement); err != nil {
		return nil, appErrors.Internal(err, "failed to create agreement")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.find(ctx, agreement.ID)
}

// Update replaces the editable fields of an agreement. Attachments are kept.
func (s *AgreementService) Update(ctx context.Context, id string, req dto.AgreementRequest) (*models.AgreementView, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	agreement := current.Agreement
	if err := s.apply(ctx, &agreement, req); err != nil {
		return nil, err
	}
	if agreement.Status == "" {
		agreement.Status = current.Status
	}
	if err := s.repo.Update(ctx, &agreement); err != nil {
		return nil, lookupError(err, "agreement not found", "failed to update agreement")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.find(ctx, id)
}

func (s *AgreementService) apply(ctx context.Context, agreement *models.Agreement, req dto.AgreementRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid agreement payload")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	expiration, err := parseDate("expiration_date", req.ExpirationDate)
	if err != nil {
		return err
	}
	if expiration.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "expiration_date must not be before start_date")
	}
	supervisorID := trimOptional(req.SupervisorID)
	if supervisorID != nil {
		if err := s.ensureSupervisorRole(ctx, *supervisorID); err != nil {
			return err
		}
	}
	agreement.Counterparty = strings.TrimSpace(req.Counterparty)
	agreement.Type = req.Type
	agreement.StartDate = start
	agreement.ExpirationDate = expiration
	agreement.Status = req.Status
	agreement.SupervisorID = supervisorID
	agreement.Description = strings.TrimSpace(req.Description)
	return nil
}

func (s *AgreementService) ensureSupervisorRole(ctx context.Context, userID string) error {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return appErrors.Internal(err, "failed to load supervisor profile")
	}
	if profile == nil || profile.Role != models.RoleSupervisor {
		return appErrors.Clone(appErrors.ErrValidation, "supervisor_id must reference a user with the supervisor role")
	}
	return nil
}

// Delete removes an agreement; reports, activities, evaluations and assignments cascade.
func (s *AgreementService) Delete(ctx context.Context, id string) error {
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "agreement not found", "failed to delete agreement")
	}
	if current.HasFile && s.storage != nil {
		if err := s.storage.Delete(*current.FilePath); err != nil {
			s.logger.Warn("failed to remove agreement attachment", zap.String("agreement_id", id), zap.Error(err))
		}
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// Expiring lists agreements expiring within days from today, inclusive. Non-positive days use the configured window.
func (s *AgreementService) Expiring(ctx context.Context, days, limit int) ([]models.AgreementView, error) {
	if days <= 0 {
		days = s.cfg.ExpiryWindowDays
	}
	today := s.today()
	items, err := s.repo.Expiring(ctx, today, today.AddDate(0, 0, days), limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list expiring agreements")
	}
	return s.decorate(items), nil
}

// Counters returns the agreement totals by stored status.
func (s *AgreementService) Counters(ctx context.Context) (models.AgreementCounters, error) {
	counters, err := s.repo.Counters(ctx)
	if err != nil {
		return models.AgreementCounters{}, appErrors.Internal(err, "failed to count agreements")
	}
	return counters, nil
}

// TypeDistribution counts agreements per type, reporting every type even when empty.
func (s *AgreementService) TypeDistribution(ctx context.Context) ([]models.TypeCount, error) {
	counts, err := s.repo.TypeDistribution(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load type distribution")
	}
	byType := make(map[models.AgreementType]int, len(counts))
	for _, c := range counts {
		byType[c.Type] = c.Count
	}
	result := make([]models.TypeCount, 0, len(models.AgreementTypes))
	for _, t := range models.AgreementTypes {
		result = append(result, models.TypeCount{Type: t, Count: byType[t]})
	}
	return result, nil
}

// UploadFile stores an attachment for the agreement, replacing any previous one.
func (s *AgreementService) UploadFile(ctx context.Context, id string, upload dto.FileUpload) (*models.AgreementView, error) {
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file storage unavailable")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.Reader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	mimeType, err := s.checkMIME(upload.ContentType)
	if err != nil {
		return nil, err
	}

	key := path.Join("agreements", id, uuid.NewString()+attachmentExtension(upload.Filename))
	if _, err := s.storage.Put(key, upload.Reader, s.cfg.MaxFileSize); err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Internal(err, "failed to store file")
	}
	if err := s.repo.UpdateFile(ctx, id, key, mimeType); err != nil {
		_ = s.storage.Delete(key)
		return nil, lookupError(err, "agreement not found", "failed to record file")
	}
	if current.HasFile && *current.FilePath != key {
		if err := s.storage.Delete(*current.FilePath); err != nil {
			s.logger.Warn("failed to remove replaced attachment", zap.String("agreement_id", id), zap.Error(err))
		}
	}
	return s.find(ctx, id)
}

func (s *AgreementService) checkMIME(raw string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return "", appErrors.Invalid(err, "file content type is missing or malformed")
	}
	if len(s.cfg.AllowedMIMEs) == 0 {
		return mediaType, nil
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mediaType) {
			return mediaType, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "file type "+mediaType+" is not allowed")
}

func attachmentExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// DownloadURL issues a signed, time-limited download link for the agreement attachment.
func (s *AgreementService) DownloadURL(ctx context.Context, id string) (*dto.SignedURL, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signing unavailable")
	}
	agreement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.HasFile {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "agreement has no file")
	}
	token, expiresAt, err := s.signer.Generate(id, *agreement.FilePath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download url")
	}
	link := fmt.Sprintf("%s/agreements/%s/file/download?token=%s", strings.TrimRight(s.cfg.DownloadPath, "/"), url.PathEscape(id), url.QueryEscape(token))
	return &dto.SignedURL{URL: link, Token: token, ExpiresAt: expiresAt}, nil
}

// Download verifies token and opens the attachment it was issued for.
func (s *AgreementService) Download(ctx context.Context, id, token string) (*dto.FileDownload, error) {
	if s.signer == nil || s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file storage unavailable")
	}
	resourceID, key, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	if resourceID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	agreement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.HasFile || *agreement.FilePath != key {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file no longer available")
	}
	file, err := s.storage.Open(key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, appErrors.Internal(err, "failed to stat file")
	}
	contentType := "application/octet-stream"
	if agreement.FileMimeType != nil && *agreement.FileMimeType != "" {
		contentType = *agreement.FileMimeType
	}
	name := slugify(agreement.Counterparty) + path.Ext(key)
	return &dto.FileDownload{Filename: name, ContentType: contentType, Size: info.Size(), Body: file}, nil
}

var exportColumns = []export.Column{
	{Key: "counterparty", Header: "Counterparty", Width: 60},
	{Key: "type", Header: "Type", Width: 25},
	{Key: "start_date", Header: "Start", Width: 25},
	{Key: "expiration_date", Header: "Expiration", Width: 25},
	{Key: "status", Header: "Status", Width: 28},
	{Key: "computed_status", Header: "Computed status", Width: 32},
	{Key: "days_remaining", Header: "Days left", Width: 20},
	{Key: "supervisor", Header: "Supervisor", Width: 45},
}

// Export renders the filtered agreement register as CSV or PDF.
func (s *AgreementService) Export(ctx context.Context, format string, filter models.AgreementFilter) (*dto.ExportFile, error) {
	if !s.cfg.ExportsEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
	items, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load agreements for export")
	}
	items = s.decorate(items)

	today := s.today()
	table := export.Table{
		Title:   "Agreement register " + today.Format(dateLayout),
		Columns: exportColumns,
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		table.Rows = append(table.Rows, map[string]string{
			"counterparty":    item.Counterparty,
			"type":            string(item.Type),
			"start_date":      item.StartDate.Format(dateLayout),
			"expiration_date": item.ExpirationDate.Format(dateLayout),
			"status":          string(item.Status),
			"computed_status": string(item.ComputedStatus),
			"days_remaining":  strconv.Itoa(item.DaysRemaining),
			"supervisor":      item.SupervisorName,
		})
	}
	data, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.metrics.RecordExport(format)
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("agreements-%s.%s", today.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func slugify(raw string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "agreement"
	}
	return out
}
