package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"diaglab/database"
	"diaglab/models"
	"diaglab/utils"
)

// SQLiteUserRepo implements UserRepository on the embedded store.
type SQLiteUserRepo struct {
	db *sql.DB
}

func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &SQLiteUserRepo{db: db}
}

func (r *SQLiteUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	var (
		u                    models.User
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone_number, created_at, updated_at FROM users WHERE phone_number = ?`, phone,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user with phone %s: %w", phone, err)
	}
	if u.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	stampNew(user)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, phone_number, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PhoneNumber,
		database.FormatTime(user.CreatedAt), database.FormatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
