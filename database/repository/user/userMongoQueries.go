// File: database/repository/user/userMongoQueries.go
package userRepo

import (
	"context"
	"errors"
	"fmt"

	"diaglab/models"
	"diaglab/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create user indexes", zap.Error(err))
	}
	return repo
}

// GetByPhone looks a user up by phone number for booking attribution.
func (r *MongoUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"id": 1, "name": 1, "email": 1, "phoneNumber": 1})
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"phoneNumber": phone}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user with phone %s: %w", phone, err)
	}
	return &user, nil
}
