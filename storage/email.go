package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// EmailStorage is the mailbox store: durable persistence of message records,
// keyed and queryable by owner, folder (inbox/sent) and thread.
type EmailStorage struct {
	db *DB
}

// NewEmailStorage creates a new email storage instance
func NewEmailStorage(db *DB) *EmailStorage {
	return &EmailStorage{db: db}
}

// Create persists a new email record, assigning its id and date
func (s *EmailStorage) Create(ctx context.Context, email *models.Email) error {
	if email.ToAddress == "" || email.FromAddress == "" {
		return fmt.Errorf("email record requires both to and from addresses")
	}

	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	if email.Date.IsZero() {
		email.Date = time.Now()
	}

	query := `
		INSERT INTO emails (id, message_id, user_id, from_address, from_name, to_address, subject, body_text, body_html, raw_content, is_sent, parent_id, thread_id, read, date)
		VALUES (:id, :message_id, :user_id, :from_address, :from_name, :to_address, :subject, :body_text, :body_html, :raw_content, :is_sent, :parent_id, :thread_id, :read, :date)
	`
	if _, err := s.db.NamedExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to create email: %w", err)
	}
	return nil
}

// GetByID returns an email record by id
func (s *EmailStorage) GetByID(ctx context.Context, id string) (*models.Email, error) {
	var email models.Email
	err := s.db.GetContext(ctx, &email, `SELECT * FROM emails WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return &email, nil
}

// GetByMessageID returns the oldest record carrying the given protocol-level
// message id. Local deliveries write two copies per message; the inbox copy
// is created first and is the one replies should link against.
func (s *EmailStorage) GetByMessageID(ctx context.Context, messageID string) (*models.Email, error) {
	var email models.Email
	err := s.db.GetContext(ctx, &email,
		`SELECT * FROM emails WHERE message_id = ? ORDER BY is_sent ASC, date ASC LIMIT 1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email by message id: %w", err)
	}
	return &email, nil
}

// ListByUser returns one page of a user's inbox or sent folder, newest first,
// along with the total number of messages in that folder.
func (s *EmailStorage) ListByUser(ctx context.Context, userID string, sent bool, page, pageSize int) ([]models.Email, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM emails WHERE user_id = ? AND is_sent = ?`, userID, sent)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emails: %w", err)
	}

	emails := []models.Email{}
	err = s.db.SelectContext(ctx, &emails,
		`SELECT * FROM emails WHERE user_id = ? AND is_sent = ? ORDER BY date DESC LIMIT ? OFFSET ?`,
		userID, sent, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, total, nil
}

// Thread returns every message belonging to the thread rooted at rootID,
// oldest first. The root itself carries the sentinel thread id, so it is
// matched by id.
func (s *EmailStorage) Thread(ctx context.Context, rootID string) ([]models.Email, error) {
	emails := []models.Email{}
	err := s.db.SelectContext(ctx, &emails,
		`SELECT * FROM emails WHERE id = ? OR thread_id = ? ORDER BY date ASC`, rootID, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	return emails, nil
}

// MarkRead sets the read flag on a message
func (s *EmailStorage) MarkRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE emails SET read = true WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark email as read: %w", err)
	}
	return nil
}

// Delete removes a message record
func (s *EmailStorage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM emails WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete email: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
