package mail

import (
	"context"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

// ThreadLinker computes reply linkage at compose time and assembles thread
// views on read. It holds no state of its own.
type ThreadLinker struct {
	emails MessageStore
}

// NewThreadLinker creates a thread linker over the mailbox store
func NewThreadLinker(emails MessageStore) *ThreadLinker {
	return &ThreadLinker{emails: emails}
}

// Link resolves the parent/thread ids for a reply to parentID. A reply
// inherits the parent's thread when it has one; otherwise the parent becomes
// the thread root it didn't know it was. An empty or dangling parentID
// yields the sentinel values: the message starts a chain of its own.
func (l *ThreadLinker) Link(ctx context.Context, parentID string) (parent, thread string) {
	if parentID == models.NoParent {
		return models.NoParent, models.NoParent
	}
	p, err := l.emails.GetByID(ctx, parentID)
	if err != nil {
		return models.NoParent, models.NoParent
	}
	if p.ThreadID != models.NoParent {
		return p.ID, p.ThreadID
	}
	return p.ID, p.ID
}

// LinkByMessageID is Link keyed on the protocol-level message id, used by the
// inbound path where a reply references its parent via In-Reply-To.
func (l *ThreadLinker) LinkByMessageID(ctx context.Context, messageID string) (parent, thread string) {
	if messageID == "" {
		return models.NoParent, models.NoParent
	}
	p, err := l.emails.GetByMessageID(ctx, messageID)
	if err != nil {
		return models.NoParent, models.NoParent
	}
	return l.Link(ctx, p.ID)
}

// Thread returns every message in the thread containing id, oldest first
func (l *ThreadLinker) Thread(ctx context.Context, id string) ([]models.Email, error) {
	msg, err := l.emails.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.emails.Thread(ctx, msg.ThreadRoot())
}
