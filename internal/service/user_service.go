package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

const userDetailNotifications = 10

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserWithProfile, int, error)
	Counters(ctx context.Context) (models.UserCounters, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type profileStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

type notificationFeed interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// UserService handles user management workflows.
type UserService struct {
	repo          userRepository
	profiles      profileStore
	notifications notificationFeed
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, profiles profileStore, notifications notificationFeed, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:          repo,
		profiles:      profiles,
		notifications: notifications,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// List returns paginated users with directory counters.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (*dto.UserList, *models.Pagination, error) {
	if err := checkPage(filter.Page); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	counters, err := s.repo.Counters(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to count users")
	}
	if users == nil {
		users = []models.UserWithProfile{}
	}
	for i := range users {
		users[i].Initials = users[i].User.Initials()
	}
	return &dto.UserList{Items: users, Counters: counters}, pageOf(filter.Page, filter.PageSize, total), nil
}

// Get returns a user with its profile, if any, and the latest notifications.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserDetail, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByUserID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user profile")
	}
	notifications, err := s.notifications.ListForUser(ctx, id, userDetailNotifications)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return &dto.UserDetail{
		User:          *user,
		Initials:      user.Initials(),
		Profile:       profile,
		Notifications: notifications,
	}, nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return user, nil
}

// Create adds a new user together with its profile.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.RequestMeta) (*dto.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid create user payload")
	}
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureUnique(ctx, username, email, ""); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(passwordHash),
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}

	status := req.Status
	if status == "" {
		status = models.ProfileActive
	}
	profile := &models.UserProfile{
		UserID:  user.ID,
		Role:    req.Role,
		Status:  status,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to create user profile")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "username": user.Username, "role": profile.Role})
	s.audit(ctx, models.AuditActionUserCreate, actorID, user.ID, nil, newPayload, meta)
	invalidateDashboard(ctx, s.cache, s.logger)

	return &dto.UserDetail{User: *user, Initials: user.Initials(), Profile: profile, Notifications: []models.Notification{}}, nil
}

func (s *UserService) ensureUnique(ctx context.Context, username, email, excludeID string) error {
	if username != "" {
		taken, err := s.repo.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return appErrors.Internal(err, "failed to check username uniqueness")
		}
		if taken {
			return appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
	}
	if email != "" {
		existing, err := s.repo.FindByIdentifier(ctx, email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return appErrors.Internal(err, "failed to check email uniqueness")
		case existing.ID != excludeID && strings.EqualFold(existing.Email, email):
			return appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
	}
	return nil
}

// Update patches the user and its profile. A new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.RequestMeta) (*dto.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid update payload")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByUserID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user profile")
	}

	oldPayload, _ := json.Marshal(auditSnapshot(user, profile))

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if err := s.ensureUnique(ctx, "", email, id); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, lookupError(err, "user not found", "failed to update user")
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash), s.now().UTC()); err != nil {
			return nil, appErrors.Internal(err, "failed to update password")
		}
		user.PasswordHash = string(hash)
	}

	if req.Role != nil || req.Status != nil || req.Phone != nil || req.Address != nil {
		if profile == nil {
			if req.Role == nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "role is required to create a profile")
			}
			profile = &models.UserProfile{UserID: id, Status: models.ProfileActive}
		}
		if req.Role != nil {
			profile.Role = *req.Role
		}
		if req.Status != nil {
			profile.Status = *req.Status
		}
		if req.Phone != nil {
			profile.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Address != nil {
			profile.Address = strings.TrimSpace(*req.Address)
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return nil, appErrors.Internal(err, "failed to update user profile")
		}
	}

	newPayload, _ := json.Marshal(auditSnapshot(user, profile))
	s.audit(ctx, models.AuditActionUserUpdate, actorID, id, oldPayload, newPayload, meta)
	invalidateDashboard(ctx, s.cache, s.logger)

	return &dto.UserDetail{User: *user, Initials: user.Initials(), Profile: profile, Notifications: []models.Notification{}}, nil
}

// Delete removes a user. Administrators cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot delete your own account")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "user not found", "failed to delete user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"username": user.Username, "active": user.Active})
	s.audit(ctx, models.AuditActionUserDelete, actorID, id, oldPayload, nil, meta)
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

func (s *UserService) audit(ctx context.Context, action, actorID, userID string, oldValues, newValues []byte, meta models.RequestMeta) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func auditSnapshot(user *models.User, profile *models.UserProfile) map[string]interface{} {
	snapshot := map[string]interface{}{"email": user.Email, "active": user.Active}
	if profile != nil {
		snapshot["role"] = profile.Role
		snapshot["status"] = profile.Status
	}
	return snapshot
}
