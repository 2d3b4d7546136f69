package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/jaimemartinez/wordjs-sub005/config"
)

const (
	// smtpPort is the standard port for direct server-to-server delivery
	smtpPort = 25

	// dialTimeout bounds the TCP connect per candidate
	dialTimeout = 10 * time.Second

	// attemptTimeout bounds a whole delivery attempt so one unreachable host
	// cannot stall the fallback chain
	attemptTimeout = 60 * time.Second
)

// Transport attempts delivery of a composed message to a single SMTP endpoint
type Transport interface {
	Deliver(addr, from, to string, msg []byte) error
}

// smtpTransport is the direct-to-MX transport: plain SMTP, no authentication
type smtpTransport struct {
	localName string // hostname announced in HELO/EHLO
}

// NewSMTPTransport creates the direct delivery transport
func NewSMTPTransport(localName string) Transport {
	return &smtpTransport{localName: localName}
}

func (t *smtpTransport) Deliver(addr, from, to string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.SetDeadline(time.Now().Add(attemptTimeout))

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(t.localName); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	return submit(c, from, to, msg)
}

// RelayTransport is the statically configured, credentialed fallback path.
// It is probed once at startup; a failed probe disables it for the lifetime
// of the process. Once validated it is a shared read-only handle, safe for
// any number of concurrent sends.
type RelayTransport struct {
	cfg       config.RelayConfig
	localName string
	available bool
}

// NewRelayTransport creates a relay transport from static configuration.
// Returns nil when no relay is configured.
func NewRelayTransport(cfg config.RelayConfig, localName string) *RelayTransport {
	if !cfg.Configured() {
		return nil
	}
	return &RelayTransport{cfg: cfg, localName: localName}
}

// Available reports whether the relay passed its startup probe
func (r *RelayTransport) Available() bool {
	return r != nil && r.available
}

// Probe performs the startup connectivity check. On failure the relay stays
// disabled rather than being retried per-send.
func (r *RelayTransport) Probe() error {
	c, err := r.connect()
	if err != nil {
		r.available = false
		return err
	}
	defer c.Close()
	r.available = true
	return c.Quit()
}

// Deliver sends a message through the relay
func (r *RelayTransport) Deliver(from, to string, msg []byte) error {
	c, err := r.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return submit(c, from, to, msg)
}

// connect dials the relay, upgrades to TLS when configured and authenticates
func (r *RelayTransport) connect() (*smtp.Client, error) {
	conn, err := net.DialTimeout("tcp", r.cfg.Addr(), dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", r.cfg.Addr(), err)
	}
	conn.SetDeadline(time.Now().Add(attemptTimeout))

	c := smtp.NewClient(conn)

	if err := c.Hello(r.localName); err != nil {
		c.Close()
		return nil, fmt.Errorf("relay hello: %w", err)
	}

	if r.cfg.Secure {
		if err := c.StartTLS(&tls.Config{ServerName: r.cfg.Host}); err != nil {
			c.Close()
			return nil, fmt.Errorf("relay starttls: %w", err)
		}
	}

	if r.cfg.Username != "" {
		auth := sasl.NewPlainClient("", r.cfg.Username, r.cfg.Password)
		if err := c.Auth(auth); err != nil {
			c.Close()
			return nil, fmt.Errorf("relay auth: %w", err)
		}
	}

	return c, nil
}

// submit runs the MAIL/RCPT/DATA sequence on an established client
func submit(c *smtp.Client, from, to string, msg []byte) error {
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to, nil); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return c.Quit()
}

// outboundMessage holds everything needed to render a wire-format message
type outboundMessage struct {
	MessageID string // bare id, without angle brackets
	From      string
	FromName  string
	To        string
	Subject   string
	TextBody  string
	HTMLBody  string
	InReplyTo string
	Date      time.Time
}

// GenerateMessageID creates a globally unique protocol-level message id
func GenerateMessageID(domain string) string {
	return fmt.Sprintf("%s@%s", uuid.New().String(), domain)
}

// Bytes renders the message with headers and, when an HTML body is present,
// a multipart/alternative body with a plain-text part first.
func (m *outboundMessage) Bytes() []byte {
	var buf bytes.Buffer

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	writeHeader("Date", date.Format(time.RFC1123Z))
	if m.FromName != "" {
		writeHeader("From", fmt.Sprintf("%s <%s>", m.FromName, m.From))
	} else {
		writeHeader("From", m.From)
	}
	writeHeader("To", m.To)
	writeHeader("Subject", m.Subject)
	writeHeader("Message-ID", fmt.Sprintf("<%s>", m.MessageID))
	if m.InReplyTo != "" {
		writeHeader("In-Reply-To", fmt.Sprintf("<%s>", m.InReplyTo))
	}
	writeHeader("MIME-Version", "1.0")

	if m.HTMLBody == "" {
		writeHeader("Content-Type", `text/plain; charset="utf-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(m.TextBody)
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	boundary := fmt.Sprintf("alt-%x", uuid.New())
	writeHeader("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n", m.TextBody)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n", m.HTMLBody)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
