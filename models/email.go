package models

import "time"

// NoParent is the sentinel value for ParentID/ThreadID on messages that are
// not part of a reply chain.
const NoParent = ""

// Email represents a persisted message record. Every delivery produces one
// record per mailbox it lands in: the recipient's inbox copy and/or the
// sender's outbox copy, distinguished by IsSent.
type Email struct {
	ID          string    `json:"id" db:"id"`
	MessageID   string    `json:"message_id" db:"message_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	FromAddress string    `json:"from_address" db:"from_address"`
	FromName    string    `json:"from_name" db:"from_name"`
	ToAddress   string    `json:"to_address" db:"to_address"`
	Subject     string    `json:"subject" db:"subject"`
	BodyText    string    `json:"body_text" db:"body_text"`
	BodyHTML    string    `json:"body_html" db:"body_html"`
	RawContent  string    `json:"-" db:"raw_content"`
	IsSent      bool      `json:"is_sent" db:"is_sent"`
	ParentID    string    `json:"parent_id" db:"parent_id"`
	ThreadID    string    `json:"thread_id" db:"thread_id"`
	Read        bool      `json:"read" db:"read"`
	Date        time.Time `json:"date" db:"date"`
}

// ThreadRoot returns the id of the thread this message belongs to. A message
// with the sentinel ThreadID is its own root.
func (e *Email) ThreadRoot() string {
	if e.ThreadID != NoParent {
		return e.ThreadID
	}
	return e.ID
}

// DeliveryResult reports the outcome of an outbound send
type DeliveryResult struct {
	Delivered bool `json:"delivered"`
	Internal  bool `json:"internal"` // true when served without network I/O
}
