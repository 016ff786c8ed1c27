// File: database/repository/user/userMongoCrud.go
package userRepo

import (
	"context"
	"fmt"
	"time"

	"diaglab/models"
	"diaglab/utils"

	"github.com/google/uuid"
)

// Create inserts a new user document.
func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	stampNew(user)
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func stampNew(user *models.User) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
}
