package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/collab-todo/internal/model"
)

const userColumns = "id, user_name, email, password_hash, otp, otp_expires_at, created_at, updated_at"

// CreateUser inserts a new user. Generates a UUID if ID is empty.
func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	if strings.TrimSpace(user.UserName) == "" || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user name and email must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID, user.UserName, user.Email, user.PasswordHash,
		user.OTP, user.OTPExpiresAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating user: %w", classify(err))
	}
	return nil
}

// UpdateUser updates the password and OTP fields of an existing user.
func (s *SQLStore) UpdateUser(ctx context.Context, user model.User) error {
	user.UpdatedAt = time.Now().UTC()

	var otpExpiresAt *time.Time
	if user.OTPExpiresAt != nil {
		t := user.OTPExpiresAt.UTC()
		otpExpiresAt = &t
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET
			password_hash = ?, otp = ?, otp_expires_at = ?, updated_at = ?
		WHERE id = ?`),
		user.PasswordHash, user.OTP, otpExpiresAt, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a single user by email address.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByUserName retrieves a single user by user name.
func (s *SQLStore) GetUserByUserName(ctx context.Context, userName string) (*model.User, error) {
	return s.getUser(ctx, "user_name", userName)
}

// getUser looks a user up by a unique column. column is never user input.
func (s *SQLStore) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	query := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + column + " = ?")
	if err := s.db.GetContext(ctx, &user, query, value); err != nil {
		return nil, fmt.Errorf("getting user by %s %q: %w", column, value, notFound(err))
	}
	return &user, nil
}
