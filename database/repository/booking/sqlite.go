package bookingRepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"diaglab/database"
	"diaglab/models"
	"diaglab/utils"

	"github.com/mattn/go-sqlite3"
)

// SQLiteBookingRepo stores bookings in a SQLite table guarded by a partial
// unique index over active slots.
type SQLiteBookingRepo struct {
	db *sql.DB
}

func NewSQLiteBookingRepo(db *sql.DB) BookingRepository {
	return &SQLiteBookingRepo{db: db}
}

const bookingColumns = `booking_id, lab_name, appointment_date, appointment_time, patient_name,
	phone, email, items, status, coupon_code, original_amount, discount_amount, final_amount,
	user_id, created_at, updated_at`

func classifySQLiteError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey:
		return ErrDuplicateID
	case sqlite3.ErrConstraintUnique:
		return ErrSlotTaken
	}
	return err
}

func (r *SQLiteBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("failed to encode booking items: %w", err)
	}
	b.SlotActive = b.Status.HoldsSlot()

	_, err = r.db.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BookingID, b.LabName, b.AppointmentDate, b.AppointmentTime, b.PatientName,
		b.Phone, b.Email, string(items), string(b.Status), b.CouponCode,
		b.OriginalAmount, b.DiscountAmount, b.FinalAmount,
		b.UserID, database.FormatTime(b.CreatedAt), database.FormatTime(b.UpdatedAt),
	)
	if err != nil {
		if cerr := classifySQLiteError(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to create booking %s: %w", b.BookingID, err)
	}
	return nil
}

func (r *SQLiteBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ?`, bookingID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (r *SQLiteBookingRepo) Update(ctx context.Context, b *models.Booking, expected models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("failed to encode booking items: %w", err)
	}
	b.SlotActive = b.Status.HoldsSlot()

	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET
			lab_name = ?, appointment_date = ?, appointment_time = ?, patient_name = ?,
			phone = ?, email = ?, items = ?, status = ?, coupon_code = ?,
			original_amount = ?, discount_amount = ?, final_amount = ?,
			user_id = ?, updated_at = ?
		WHERE booking_id = ? AND status = ?`,
		b.LabName, b.AppointmentDate, b.AppointmentTime, b.PatientName,
		b.Phone, b.Email, string(items), string(b.Status), b.CouponCode,
		b.OriginalAmount, b.DiscountAmount, b.FinalAmount,
		b.UserID, database.FormatTime(b.UpdatedAt), b.BookingID, string(expected),
	)
	if err != nil {
		if cerr := classifySQLiteError(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to update booking %s: %w", b.BookingID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM bookings WHERE booking_id = ?`, b.BookingID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check booking %s: %w", b.BookingID, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrStatusChanged
}

func (r *SQLiteBookingRepo) Delete(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ?`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", bookingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteBookingRepo) HasActive(ctx context.Context, key models.SlotKey) (bool, error) {
	b, err := r.FindActive(ctx, key)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

func (r *SQLiteBookingRepo) FindActive(ctx context.Context, key models.SlotKey) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE lab_name = ? AND appointment_date = ? AND appointment_time = ? AND status IN (?, ?)
		LIMIT 1`,
		key.LabName, key.AppointmentDate, key.AppointmentTime,
		string(activeStatuses[0]), string(activeStatuses[1]),
	)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking for %s: %w", key, err)
	}
	return b, nil
}

func (r *SQLiteBookingRepo) ActiveTimes(ctx context.Context, labName, date string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT appointment_time FROM bookings
		WHERE lab_name = ? AND appointment_date = ? AND status IN (?, ?)`,
		labName, date, string(activeStatuses[0]), string(activeStatuses[1]),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times for %s on %s: %w", labName, date, err)
	}
	defer rows.Close()

	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func scanBooking(row *sql.Row) (*models.Booking, error) {
	var (
		b                    models.Booking
		items, status        string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&b.BookingID, &b.LabName, &b.AppointmentDate, &b.AppointmentTime, &b.PatientName,
		&b.Phone, &b.Email, &items, &status, &b.CouponCode,
		&b.OriginalAmount, &b.DiscountAmount, &b.FinalAmount,
		&b.UserID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &b.Items); err != nil {
		return nil, fmt.Errorf("failed to decode booking items: %w", err)
	}
	b.Status = models.BookingStatus(status)
	b.SlotActive = b.Status.HoldsSlot()
	if b.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
