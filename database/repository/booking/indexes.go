package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingIDIndex  = "unique_booking_id"
	activeSlotIndex = "unique_active_slot"
)

// EnsureIndexes creates the indexes that back booking uniqueness.
func (r *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(bookingIDIndex),
		},
		// Only Confirmed/Pending bookings carry slotActive=true.
		{
			Keys: bson.D{
				{Key: "labName", Value: 1},
				{Key: "appointmentDate", Value: 1},
				{Key: "appointmentTime", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slotActive": true}).
				SetName(activeSlotIndex),
		},
		{
			Keys:    bson.D{{Key: "labName", Value: 1}, {Key: "appointmentDate", Value: 1}, {Key: "slotActive", Value: 1}},
			Options: options.Index().SetName("lab_date_active_idx"),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("phone_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
