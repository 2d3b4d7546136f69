package mail

import (
	"context"
	"testing"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

func TestClassify(t *testing.T) {
	directory := &fakeDirectory{
		users: []*models.User{
			{ID: "u1", Username: "alice", Email: "alice@example.com"},
			{ID: "u2", Username: "bob", Email: "bob@elsewhere.org"},
		},
	}
	classifier := NewClassifier(directory, "Example.COM")

	tests := []struct {
		name          string
		address       string
		wantLocal     bool
		wantUserID    string
		wantCanonical string
	}{
		{
			name:          "exact email match",
			address:       "alice@example.com",
			wantLocal:     true,
			wantUserID:    "u1",
			wantCanonical: "alice@example.com",
		},
		{
			name:          "email match is case-insensitive",
			address:       "ALICE@Example.Com",
			wantLocal:     true,
			wantUserID:    "u1",
			wantCanonical: "alice@example.com",
		},
		{
			name:          "directory email outside site domain",
			address:       "bob@elsewhere.org",
			wantLocal:     true,
			wantUserID:    "u2",
			wantCanonical: "bob@elsewhere.org",
		},
		{
			name:          "login name at site domain resolves to canonical email",
			address:       "bob@example.com",
			wantLocal:     true,
			wantUserID:    "u2",
			wantCanonical: "bob@elsewhere.org",
		},
		{
			name:          "login match is case-insensitive",
			address:       "BOB@EXAMPLE.COM",
			wantLocal:     true,
			wantUserID:    "u2",
			wantCanonical: "bob@elsewhere.org",
		},
		{
			name:      "unknown login at site domain is remote",
			address:   "carol@example.com",
			wantLocal: false,
		},
		{
			name:      "foreign domain is remote",
			address:   "alice@gmail.com",
			wantLocal: false,
		},
		{
			name:      "login name at foreign domain is remote",
			address:   "bob@gmail.com",
			wantLocal: false,
		},
		{
			name:      "empty address is remote",
			address:   "",
			wantLocal: false,
		},
		{
			name:      "address without domain is remote",
			address:   "alice",
			wantLocal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(context.Background(), tt.address)
			if got.Local != tt.wantLocal {
				t.Fatalf("Classify(%q).Local = %v, want %v", tt.address, got.Local, tt.wantLocal)
			}
			if got.UserID != tt.wantUserID {
				t.Errorf("Classify(%q).UserID = %q, want %q", tt.address, got.UserID, tt.wantUserID)
			}
			if got.CanonicalEmail != tt.wantCanonical {
				t.Errorf("Classify(%q).CanonicalEmail = %q, want %q", tt.address, got.CanonicalEmail, tt.wantCanonical)
			}
		})
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		address   string
		wantLocal string
		wantDom   string
		wantOK    bool
	}{
		{"alice@example.com", "alice", "example.com", true},
		{"alice@Example.COM", "alice", "example.com", true},
		{`"odd@name"@example.com`, `"odd@name"`, "example.com", true},
		{"alice", "", "", false},
		{"@example.com", "", "", false},
		{"alice@", "", "", false},
	}

	for _, tt := range tests {
		localPart, domain, ok := SplitAddress(tt.address)
		if ok != tt.wantOK || localPart != tt.wantLocal || domain != tt.wantDom {
			t.Errorf("SplitAddress(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.address, localPart, domain, ok, tt.wantLocal, tt.wantDom, tt.wantOK)
		}
	}
}
