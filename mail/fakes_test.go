package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaimemartinez/wordjs-sub005/models"
	"github.com/jaimemartinez/wordjs-sub005/storage"
)

// fakeDirectory is an in-memory user directory
type fakeDirectory struct {
	users []*models.User
}

func (d *fakeDirectory) GetUser(ctx context.Context, userID string) (*models.User, error) {
	for _, u := range d.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (d *fakeDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range d.users {
		if equalFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (d *fakeDirectory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range d.users {
		if equalFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// fakeStore is an in-memory mailbox store
type fakeStore struct {
	mu     sync.Mutex
	nextID int
	emails []*models.Email
}

func (s *fakeStore) Create(ctx context.Context, email *models.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email.ID == "" {
		s.nextID++
		email.ID = fmt.Sprintf("msg-%d", s.nextID)
	}
	copied := *email
	s.emails = append(s.emails, &copied)
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emails {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) GetByMessageID(ctx context.Context, messageID string) (*models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emails {
		if e.MessageID == messageID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) Thread(ctx context.Context, rootID string) ([]models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Email
	for _, e := range s.emails {
		if e.ID == rootID || e.ThreadID == rootID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (s *fakeStore) all() []*models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Email(nil), s.emails...)
}

// fakeSettings returns only fallbacks
type fakeSettings struct {
	values map[string]string
}

func (s *fakeSettings) Get(ctx context.Context, key, fallback string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

// fakeResolver returns a scripted candidate list
type fakeResolver struct {
	candidates map[string][]Candidate
}

func (r *fakeResolver) Resolve(domain string) []Candidate {
	return r.candidates[domain]
}

// fakeTransport records delivery attempts and fails for scripted addresses
type fakeTransport struct {
	mu       sync.Mutex
	attempts []string
	failing  map[string]error
}

func (t *fakeTransport) Deliver(addr, from, to string, msg []byte) error {
	t.mu.Lock()
	t.attempts = append(t.attempts, addr)
	t.mu.Unlock()
	if err, ok := t.failing[addr]; ok {
		return err
	}
	return nil
}

// fakeRelay stands in for the configured relay transporter
type fakeRelay struct {
	available bool
	err       error
	attempts  int
}

func (r *fakeRelay) Available() bool {
	return r.available
}

func (r *fakeRelay) Deliver(from, to string, msg []byte) error {
	r.attempts++
	return r.err
}

// fakeNotifier records emitted notifications
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) NotifyUser(ctx context.Context, userID, title, message string) {
	n.mu.Lock()
	n.events = append(n.events, userID)
	n.mu.Unlock()
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
