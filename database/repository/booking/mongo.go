package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"diaglab/models"
	"diaglab/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoBookingRepo stores bookings in the "bookings" collection.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create booking indexes", zap.Error(err))
	}
	return repo
}

// classifyWriteError maps a duplicate-key failure to the index that rejected it.
func classifyWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if strings.Contains(err.Error(), activeSlotIndex) {
		return ErrSlotTaken
	}
	return ErrDuplicateID
}

func activeSlotFilter(key models.SlotKey) bson.M {
	return bson.M{
		"labName":         key.LabName,
		"appointmentDate": key.AppointmentDate,
		"appointmentTime": key.AppointmentTime,
		"slotActive":      true,
	}
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	b.SlotActive = b.Status.HoldsSlot()
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		if cerr := classifyWriteError(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to create booking %s: %w", b.BookingID, err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", bookingID, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) Update(ctx context.Context, b *models.Booking, expected models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	b.SlotActive = b.Status.HoldsSlot()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"bookingId": b.BookingID, "status": expected}, b)
	if err != nil {
		if cerr := classifyWriteError(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to update booking %s: %w", b.BookingID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"bookingId": b.BookingID})
	if err != nil {
		return fmt.Errorf("failed to check booking %s: %w", b.BookingID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStatusChanged
}

func (r *MongoBookingRepo) Delete(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"bookingId": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", bookingID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepo) HasActive(ctx context.Context, key models.SlotKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, activeSlotFilter(key))
	if err != nil {
		return false, fmt.Errorf("failed to count bookings for %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *MongoBookingRepo) FindActive(ctx context.Context, key models.SlotKey) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, activeSlotFilter(key)).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking for %s: %w", key, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ActiveTimes(ctx context.Context, labName, date string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{"labName": labName, "appointmentDate": date, "slotActive": true}
	raw, err := r.coll.Distinct(ctx, "appointmentTime", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times for %s on %s: %w", labName, date, err)
	}
	times := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			times = append(times, s)
		}
	}
	return times, nil
}
