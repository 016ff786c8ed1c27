package couponRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diaglab/models"
	"diaglab/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoCouponRepo struct {
	coll *mongo.Collection
}

func NewMongoCouponRepo(db *mongo.Database) CouponRepository {
	repo := &MongoCouponRepo{coll: db.Collection("coupons")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create coupon indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoCouponRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_coupon_code"),
	})
	if err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}
	return nil
}

func (r *MongoCouponRepo) Get(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var c models.Coupon
	err := r.coll.FindOne(ctx, bson.M{"code": models.NormalizeCouponCode(code)}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon %s: %w", code, err)
	}
	return &c, nil
}

func (r *MongoCouponRepo) Create(ctx context.Context, c *models.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	c.Code = models.NormalizeCouponCode(c.Code)
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create coupon %s: %w", c.Code, err)
	}
	return nil
}

func (r *MongoCouponRepo) Deactivate(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"usedCount": 1},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"code": models.NormalizeCouponCode(code)}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate coupon %s: %w", code, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
