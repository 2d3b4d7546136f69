package mail

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jaimemartinez/wordjs-sub005/models"
	"github.com/jaimemartinez/wordjs-sub005/storage"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// MessageStore is the mailbox-store collaborator. Implemented by
// storage.EmailStorage.
type MessageStore interface {
	Create(ctx context.Context, email *models.Email) error
	GetByID(ctx context.Context, id string) (*models.Email, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Email, error)
	Thread(ctx context.Context, rootID string) ([]models.Email, error)
}

// SettingsSource provides runtime-adjustable settings. Implemented by
// storage.SettingsStorage.
type SettingsSource interface {
	Get(ctx context.Context, key, fallback string) string
}

// Notifier is the notification-dispatcher collaborator
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, message string)
}

// RelayDelivery is the relay fallback path. Satisfied by *RelayTransport.
type RelayDelivery interface {
	Available() bool
	Deliver(from, to string, msg []byte) error
}

// DeliveryError is returned when every delivery path for a send failed. It
// carries the last transport error.
type DeliveryError struct {
	Last error
}

func (e *DeliveryError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("all delivery paths failed: %v", e.Last)
	}
	return "all delivery paths failed"
}

func (e *DeliveryError) Unwrap() error {
	return e.Last
}

// SendRequest is one outbound compose. FromEmail/FromName fall back to the
// site-wide sender identity when empty. ParentID/ThreadID are expected to
// have been resolved by the ThreadLinker already.
type SendRequest struct {
	To        string
	Subject   string
	TextBody  string
	HTMLBody  string
	FromEmail string
	FromName  string
	ParentID  string
	ThreadID  string
}

// Mailer is the outbound delivery engine. Send may be invoked concurrently;
// each invocation runs its own sequential candidate loop.
type Mailer struct {
	classifier *Classifier
	emails     MessageStore
	settings   SettingsSource
	resolver   MXResolver
	transport  Transport
	relay      RelayDelivery // nil when not configured
	notifier   Notifier      // nil until registered

	siteDomain       string
	defaultFromEmail string
	defaultFromName  string
}

// NewMailer creates the outbound delivery engine
func NewMailer(classifier *Classifier, emails MessageStore, settings SettingsSource, resolver MXResolver, transport Transport, relay RelayDelivery, siteDomain, defaultFromEmail, defaultFromName string) *Mailer {
	return &Mailer{
		classifier:       classifier,
		emails:           emails,
		settings:         settings,
		resolver:         resolver,
		transport:        transport,
		relay:            relay,
		siteDomain:       siteDomain,
		defaultFromEmail: defaultFromEmail,
		defaultFromName:  defaultFromName,
	}
}

// SetNotifier wires the notification dispatcher in after construction; the
// dispatcher itself holds this mailer as its email transport.
func (m *Mailer) SetNotifier(n Notifier) {
	m.notifier = n
}

// Send delivers a message: local short-circuit first, then direct-to-MX in
// ascending priority order, then the relay. Returns DeliveryError when no
// path succeeds; in that case nothing is persisted.
func (m *Mailer) Send(ctx context.Context, req SendRequest) (models.DeliveryResult, error) {
	return m.send(ctx, req, true)
}

// SendQuiet is Send without the recipient notification. Used for
// notification-origin mail so a notification can never trigger another one.
func (m *Mailer) SendQuiet(ctx context.Context, req SendRequest) (models.DeliveryResult, error) {
	return m.send(ctx, req, false)
}

func (m *Mailer) send(ctx context.Context, req SendRequest, notifyRecipient bool) (models.DeliveryResult, error) {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return models.DeliveryResult{}, fmt.Errorf("recipient address is required")
	}

	from := req.FromEmail
	if from == "" {
		from = m.settings.Get(ctx, storage.SettingFromEmail, m.defaultFromEmail)
	}
	fromName := req.FromName
	if fromName == "" {
		fromName = m.settings.Get(ctx, storage.SettingFromName, m.defaultFromName)
	}

	messageID := GenerateMessageID(m.siteDomain)

	// Local short-circuit: takes precedence over every remote path and needs
	// no network at all.
	cls := m.classifier.Classify(ctx, to)
	if cls.Local {
		if err := m.deliverLocal(ctx, req, cls, from, fromName, messageID, notifyRecipient); err != nil {
			return models.DeliveryResult{}, err
		}
		return models.DeliveryResult{Delivered: true, Internal: true}, nil
	}

	_, domain, ok := SplitAddress(to)
	if !ok {
		return models.DeliveryResult{}, fmt.Errorf("invalid recipient address %q", to)
	}

	parentMessageID := m.parentMessageID(ctx, req.ParentID)
	msg := &outboundMessage{
		MessageID: messageID,
		From:      from,
		FromName:  fromName,
		To:        to,
		Subject:   req.Subject,
		TextBody:  req.TextBody,
		HTMLBody:  req.HTMLBody,
		InReplyTo: parentMessageID,
	}
	wire := msg.Bytes()

	candidates := m.resolver.Resolve(domain)
	if len(candidates) == 0 {
		candidates = fallbackCandidates(domain)
	}

	var lastErr error
	delivered := false
	for _, cand := range candidates {
		addr := net.JoinHostPort(cand.Host, strconv.Itoa(smtpPort))
		if err := m.transport.Deliver(addr, from, to, wire); err != nil {
			lastErr = err
			utils.Log.Warn("Direct delivery to %s via %s failed: %v", to, cand.Host, err)
			continue
		}
		delivered = true
		utils.Log.Info("Delivered %s to %s via %s", messageID, to, cand.Host)
		break
	}

	if !delivered && m.relay != nil && m.relay.Available() {
		if err := m.relay.Deliver(from, to, wire); err != nil {
			lastErr = err
			utils.Log.Warn("Relay delivery to %s failed: %v", to, err)
		} else {
			delivered = true
			utils.Log.Info("Delivered %s to %s via relay", messageID, to)
		}
	}

	if !delivered {
		return models.DeliveryResult{}, &DeliveryError{Last: lastErr}
	}

	// Sender's outbox copy. Only persisted after a successful delivery.
	sent := &models.Email{
		MessageID:   messageID,
		UserID:      m.ownerOf(ctx, from),
		FromAddress: from,
		FromName:    fromName,
		ToAddress:   to,
		Subject:     req.Subject,
		BodyText:    req.TextBody,
		BodyHTML:    req.HTMLBody,
		IsSent:      true,
		ParentID:    req.ParentID,
		ThreadID:    req.ThreadID,
	}
	if err := m.emails.Create(ctx, sent); err != nil {
		return models.DeliveryResult{}, fmt.Errorf("message delivered but not recorded: %w", err)
	}

	return models.DeliveryResult{Delivered: true}, nil
}

// deliverLocal persists the recipient's inbox copy and the sender's outbox
// copy, both addressed to the recipient's canonical mailbox address.
func (m *Mailer) deliverLocal(ctx context.Context, req SendRequest, cls Classification, from, fromName, messageID string, notifyRecipient bool) error {
	inbox := &models.Email{
		MessageID:   messageID,
		UserID:      cls.UserID,
		FromAddress: from,
		FromName:    fromName,
		ToAddress:   cls.CanonicalEmail,
		Subject:     req.Subject,
		BodyText:    req.TextBody,
		BodyHTML:    req.HTMLBody,
		IsSent:      false,
		ParentID:    req.ParentID,
		ThreadID:    req.ThreadID,
	}
	if err := m.emails.Create(ctx, inbox); err != nil {
		return fmt.Errorf("failed to persist inbox copy: %w", err)
	}

	sent := &models.Email{
		MessageID:   messageID,
		UserID:      m.ownerOf(ctx, from),
		FromAddress: from,
		FromName:    fromName,
		ToAddress:   cls.CanonicalEmail,
		Subject:     req.Subject,
		BodyText:    req.TextBody,
		BodyHTML:    req.HTMLBody,
		IsSent:      true,
		ParentID:    req.ParentID,
		ThreadID:    req.ThreadID,
	}
	if err := m.emails.Create(ctx, sent); err != nil {
		return fmt.Errorf("failed to persist sent copy: %w", err)
	}

	utils.Log.Info("Delivered %s to %s internally", messageID, cls.CanonicalEmail)

	if notifyRecipient && m.notifier != nil {
		m.notifier.NotifyUser(ctx, cls.UserID, fmt.Sprintf("New message: %s", req.Subject), req.TextBody)
	}
	return nil
}

// ownerOf maps a sender address to the owning local mailbox, if any
func (m *Mailer) ownerOf(ctx context.Context, address string) string {
	cls := m.classifier.Classify(ctx, address)
	return cls.UserID
}

// parentMessageID looks up the protocol-level id of the message being replied
// to, for the In-Reply-To header
func (m *Mailer) parentMessageID(ctx context.Context, parentID string) string {
	if parentID == models.NoParent {
		return ""
	}
	parent, err := m.emails.GetByID(ctx, parentID)
	if err != nil {
		return ""
	}
	return parent.MessageID
}
