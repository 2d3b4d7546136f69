package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

// UserStorage is the user directory: lookup of locally registered accounts
// by email or by login name.
type UserStorage struct {
	db *DB
}

// NewUserStorage creates a new user storage instance
func NewUserStorage(db *DB) *UserStorage {
	return &UserStorage{db: db}
}

// CreateUser creates a new user with a bcrypt-hashed password
func (s *UserStorage) CreateUser(ctx context.Context, user *models.User, password string) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, display_name, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :display_name, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *UserStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by login name, case-insensitively
func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE username = ? COLLATE NOCASE`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE email = ? COLLATE NOCASE`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// VerifyPassword verifies a password for a user
func (s *UserStorage) VerifyPassword(ctx context.Context, userID, password string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
}
