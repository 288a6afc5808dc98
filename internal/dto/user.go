package dto

import "github.com/noah-isme/agreements-api/internal/models"

// CreateUserRequest creates a user together with its profile.
type CreateUserRequest struct {
	Username  string               `json:"username" validate:"required,min=3,max=50"`
	Email     string               `json:"email" validate:"required,email"`
	FirstName string               `json:"first_name" validate:"max=100"`
	LastName  string               `json:"last_name" validate:"max=100"`
	Password  string               `json:"password" validate:"required,min=8"`
	Role      models.UserRole      `json:"role" validate:"required,oneof=admin supervisor student"`
	Status    models.ProfileStatus `json:"status" validate:"omitempty,oneof=active pending inactive"`
	Phone     string               `json:"phone" validate:"max=30"`
	Address   string               `json:"address" validate:"max=300"`
}

// UpdateUserRequest patches a user and its profile; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email     *string               `json:"email" validate:"omitempty,email"`
	FirstName *string               `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string               `json:"last_name" validate:"omitempty,max=100"`
	Password  *string               `json:"password" validate:"omitempty,min=8"`
	Active    *bool                 `json:"active"`
	Role      *models.UserRole      `json:"role" validate:"omitempty,oneof=admin supervisor student"`
	Status    *models.ProfileStatus `json:"status" validate:"omitempty,oneof=active pending inactive"`
	Phone     *string               `json:"phone" validate:"omitempty,max=30"`
	Address   *string               `json:"address" validate:"omitempty,max=300"`
}

// UserList is the user directory page with counters.
type UserList struct {
	Items    []models.UserWithProfile `json:"items"`
	Counters models.UserCounters      `json:"counters"`
}

// UserDetail is a user with its optional profile and latest notifications.
type UserDetail struct {
	models.User
	Initials      string                `json:"initials"`
	Profile       *models.UserProfile   `json:"profile"`
	Notifications []models.Notification `json:"notifications"`
}
