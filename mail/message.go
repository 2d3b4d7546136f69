package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// InboundMessage is a fully parsed received message, available as a whole
// before recipient resolution begins.
type InboundMessage struct {
	MessageID   string
	InReplyTo   string
	FromAddress string
	FromName    string
	Subject     string
	TextBody    string
	HTMLBody    string
	Raw         string
	Date        time.Time
}

// ParseInbound reads and parses one complete message. Any structural failure
// is returned as an error; the caller aborts the connection and persists
// nothing.
func ParseInbound(r io.Reader) (*InboundMessage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	msg := &InboundMessage{Raw: string(raw)}
	header := mr.Header

	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		msg.FromAddress = strings.ToLower(from[0].Address)
		msg.FromName = from[0].Name
	}
	if subject, err := header.Subject(); err == nil {
		msg.Subject = subject
	}
	if id, err := header.MessageID(); err == nil {
		msg.MessageID = id
	}
	if refs, err := header.MsgIDList("In-Reply-To"); err == nil && len(refs) > 0 {
		msg.InReplyTo = refs[0]
	}
	if date, err := header.Date(); err == nil {
		msg.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parse message part: %w", err)
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := inline.ContentType()
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			if msg.TextBody == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					msg.TextBody = string(body)
				}
			}
		case "text/html":
			if msg.HTMLBody == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					msg.HTMLBody = string(body)
				}
			}
		}
	}

	return msg, nil
}
