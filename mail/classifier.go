// Package mail implements the two-sided mail transfer core: an inbound SMTP
// listener for locally registered accounts and an outbound delivery engine
// with local short-circuit, direct-to-MX and relay fallback paths.
package mail

import (
	"context"
	"strings"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

// Directory is the user-directory collaborator: lookup of locally registered
// accounts. Implemented by storage.UserStorage.
type Directory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Classification is the result of resolving a destination address against the
// user directory.
type Classification struct {
	Local          bool
	UserID         string
	CanonicalEmail string // the directory-of-record address, set when Local
}

// Classifier decides whether a destination address can be served without
// network I/O. Both the inbound and outbound paths share this one policy.
type Classifier struct {
	directory  Directory
	siteDomain string
}

// NewClassifier creates a classifier for the given site domain
func NewClassifier(directory Directory, siteDomain string) *Classifier {
	return &Classifier{
		directory:  directory,
		siteDomain: strings.ToLower(siteDomain),
	}
}

// Classify resolves an address: first a verbatim directory lookup by email,
// then, for addresses at the site domain, a lookup of the local part as a
// login name. Anything else is remote. Matching is case-insensitive and has
// no side effects.
func (c *Classifier) Classify(ctx context.Context, address string) Classification {
	addr := strings.ToLower(strings.TrimSpace(address))
	if addr == "" {
		return Classification{}
	}

	if user, err := c.directory.GetUserByEmail(ctx, addr); err == nil {
		return Classification{Local: true, UserID: user.ID, CanonicalEmail: user.Email}
	}

	localPart, domain, ok := SplitAddress(addr)
	if ok && domain == c.siteDomain {
		if user, err := c.directory.GetUserByUsername(ctx, localPart); err == nil {
			return Classification{Local: true, UserID: user.ID, CanonicalEmail: user.Email}
		}
	}

	return Classification{}
}

// SplitAddress splits an email address into local part and lowercased domain
func SplitAddress(address string) (localPart, domain string, ok bool) {
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", "", false
	}
	return address[:at], strings.ToLower(address[at+1:]), true
}
