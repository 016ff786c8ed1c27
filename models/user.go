// models/user.go
package models

import "time"

// User is the patient directory record bookings are linked to by phone number.
type User struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber string    `bson:"phoneNumber" json:"phoneNumber"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
