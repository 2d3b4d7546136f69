package mail

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/jaimemartinez/wordjs-sub005/models"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

var errMalformedMessage = &smtp.SMTPError{
	Code:         451,
	EnhancedCode: smtp.EnhancedCode{4, 5, 2},
	Message:      "Malformed message",
}

// Listener is the inbound mail service. It moves between Stopped and
// Listening; a configuration change always goes through a full stop/start
// cycle, never a live patch. It is intentionally an open ingress: no sender
// authentication is required.
type Listener struct {
	classifier *Classifier
	emails     MessageStore
	linker     *ThreadLinker
	notifier   Notifier
	siteDomain string

	mu       sync.Mutex
	server   *smtp.Server
	running  bool
	port     int
	catchAll bool
}

// NewListener creates a stopped inbound listener
func NewListener(classifier *Classifier, emails MessageStore, linker *ThreadLinker, notifier Notifier, siteDomain string) *Listener {
	return &Listener{
		classifier: classifier,
		emails:     emails,
		linker:     linker,
		notifier:   notifier,
		siteDomain: siteDomain,
	}
}

// Start binds the listener on the given port. A binding failure leaves the
// listener in Stopped and is returned to the caller; it must not take the
// host process down.
func (l *Listener) Start(port int, catchAll bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked(port, catchAll)
}

func (l *Listener) startLocked(port int, catchAll bool) error {
	if l.running {
		return fmt.Errorf("listener already running on port %d", l.port)
	}

	server := smtp.NewServer(&smtpBackend{listener: l})
	server.Addr = fmt.Sprintf(":%d", port)
	server.Domain = l.siteDomain
	server.ReadTimeout = 60 * time.Second
	server.WriteTimeout = 60 * time.Second
	server.MaxMessageBytes = 10 * 1024 * 1024
	server.MaxRecipients = 50

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("bind port %d: %w", port, err)
	}

	l.server = server
	l.running = true
	l.port = port
	l.catchAll = catchAll

	go func() {
		if err := server.Serve(ln); err != nil {
			// Serve returns on Close; anything else is a real failure
			utils.Log.Debug("Inbound server on port %d exited: %v", port, err)
		}
	}()

	utils.Log.Info("Inbound listener accepting on port %d (catch-all: %v)", port, catchAll)
	return nil
}

// Stop closes the listener and releases the port. Stopping a stopped
// listener is a no-op.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked()
}

func (l *Listener) stopLocked() error {
	if !l.running {
		return nil
	}
	err := l.server.Close()
	l.server = nil
	l.running = false
	utils.Log.Info("Inbound listener stopped, port %d released", l.port)
	return err
}

// Restart applies new settings through a full stop/start cycle
func (l *Listener) Restart(port int, catchAll bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.stopLocked(); err != nil {
		utils.Log.Warn("Error stopping inbound listener: %v", err)
	}
	return l.startLocked(port, catchAll)
}

// Running reports whether the listener is accepting connections
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Port returns the currently bound port
func (l *Listener) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

func (l *Listener) catchAllEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catchAll
}

type smtpBackend struct {
	listener *Listener
}

func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &inboundSession{
		listener: b.listener,
		remote:   c.Conn().RemoteAddr().String(),
	}, nil
}

// inboundSession handles one connection. Each connection runs independently;
// the only shared state is the directory and the mailbox store.
type inboundSession struct {
	listener   *Listener
	remote     string
	from       string
	recipients []string
}

func (s *inboundSession) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *inboundSession) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data receives the complete message, parses it as a single unit and then
// resolves every declared recipient. A parse failure aborts the transaction
// with a protocol-level error and persists nothing.
func (s *inboundSession) Data(r io.Reader) error {
	msg, err := ParseInbound(r)
	if err != nil {
		utils.Log.Warn("Rejected malformed message from %s: %v", s.remote, err)
		return errMalformedMessage
	}

	// The parsed sender header is authoritative; the envelope sender is the
	// fallback for messages without one.
	if msg.FromAddress == "" {
		msg.FromAddress = s.from
	}

	s.listener.deliver(context.Background(), msg, s.recipients)
	return nil
}

func (s *inboundSession) Reset() {
	s.from = ""
	s.recipients = nil
}

func (s *inboundSession) Logout() error {
	return nil
}

// deliver classifies each declared recipient and persists inbox copies for
// local matches, or for any address when catch-all is enabled. Unmatched
// recipients without catch-all are dropped without a record and without an
// error to the sending party.
func (l *Listener) deliver(ctx context.Context, msg *InboundMessage, recipients []string) {
	catchAll := l.catchAllEnabled()

	parentID, threadID := l.linker.LinkByMessageID(ctx, msg.InReplyTo)

	messageID := msg.MessageID
	if messageID == "" {
		messageID = GenerateMessageID(l.siteDomain)
	}

	for _, recipient := range recipients {
		cls := l.classifier.Classify(ctx, recipient)
		if !cls.Local && !catchAll {
			utils.Log.Debug("Dropping message for unmatched recipient %s", recipient)
			continue
		}

		toAddress := cls.CanonicalEmail
		if toAddress == "" {
			// Catch-all capture with no directory match keeps the literal
			// dialed address.
			toAddress = recipient
		}

		email := &models.Email{
			MessageID:   messageID,
			UserID:      cls.UserID,
			FromAddress: msg.FromAddress,
			FromName:    msg.FromName,
			ToAddress:   toAddress,
			Subject:     msg.Subject,
			BodyText:    msg.TextBody,
			BodyHTML:    utils.SanitizeHTML(msg.HTMLBody),
			RawContent:  msg.Raw,
			IsSent:      false,
			ParentID:    parentID,
			ThreadID:    threadID,
			Date:        msg.Date,
		}
		if err := l.emails.Create(ctx, email); err != nil {
			utils.Log.Error("Failed to persist inbound message for %s: %v", toAddress, err)
			continue
		}

		utils.Log.Info("Stored inbound message %s for %s", messageID, toAddress)

		if cls.Local && l.notifier != nil {
			l.notifier.NotifyUser(ctx, cls.UserID, fmt.Sprintf("New message: %s", msg.Subject), msg.TextBody)
		}
	}
}
