package mail

import (
	"strings"
	"testing"
)

func crlf(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParseInboundPlain(t *testing.T) {
	raw := crlf(
		"From: Carol Remote <carol@remote.org>",
		"To: alice@example.com",
		"Subject: quick question",
		"Message-ID: <orig-123@remote.org>",
		"Date: Fri, 14 Mar 2025 09:26:53 +0000",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		"do you have a minute?",
	)

	msg, err := ParseInbound(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.FromAddress != "carol@remote.org" {
		t.Errorf("from = %q", msg.FromAddress)
	}
	if msg.FromName != "Carol Remote" {
		t.Errorf("from name = %q", msg.FromName)
	}
	if msg.Subject != "quick question" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.MessageID != "orig-123@remote.org" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if strings.TrimSpace(msg.TextBody) != "do you have a minute?" {
		t.Errorf("text body = %q", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		t.Errorf("unexpected html body %q", msg.HTMLBody)
	}
	if msg.Raw != raw {
		t.Error("raw content not preserved verbatim")
	}
	if msg.Date.IsZero() {
		t.Error("date not parsed")
	}
}

func TestParseInboundAlternative(t *testing.T) {
	raw := crlf(
		"From: carol@remote.org",
		"To: alice@example.com",
		"Subject: Re: quick question",
		"Message-ID: <reply-456@remote.org>",
		"In-Reply-To: <orig-123@remote.org>",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="frontier"`,
		"",
		"--frontier",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		"plain reply",
		"--frontier",
		`Content-Type: text/html; charset="utf-8"`,
		"",
		"<p>rich reply</p>",
		"--frontier--",
	)

	msg, err := ParseInbound(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.InReplyTo != "orig-123@remote.org" {
		t.Errorf("in-reply-to = %q", msg.InReplyTo)
	}
	if strings.TrimSpace(msg.TextBody) != "plain reply" {
		t.Errorf("text body = %q", msg.TextBody)
	}
	if strings.TrimSpace(msg.HTMLBody) != "<p>rich reply</p>" {
		t.Errorf("html body = %q", msg.HTMLBody)
	}
	if msg.FromName != "" {
		t.Errorf("bare address produced a display name %q", msg.FromName)
	}
}

func TestParseInboundMalformed(t *testing.T) {
	if _, err := ParseInbound(strings.NewReader("this is not a mail message")); err == nil {
		t.Error("expected error for a message without headers")
	}
}
