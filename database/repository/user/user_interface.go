package userRepo

import (
	"context"

	"diaglab/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetByPhone returns nil, nil when no user has that phone number.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// Create inserts a new user record. Users are owned by an external
	// account service; this is the seeding and test entry point.
	Create(ctx context.Context, user *models.User) error
}
