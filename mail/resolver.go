package mail

import (
	"net"
	"sort"
	"strings"
	"time"

	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// mxCacheTTL bounds how long a resolved candidate list is reused. Kept short:
// it is a convenience on top of the system resolver, not a delivery contract.
const mxCacheTTL = time.Minute

// Candidate is one exchange host a message may be delivered to
type Candidate struct {
	Host     string
	Priority uint16
}

// MXResolver resolves a domain to an ordered list of delivery candidates
type MXResolver interface {
	Resolve(domain string) []Candidate
}

// dnsResolver resolves via the system resolver's MX lookup
type dnsResolver struct {
	cache *utils.MemoryCache
}

// NewResolver creates the default MX resolver
func NewResolver() MXResolver {
	return &dnsResolver{cache: utils.NewMemoryCache()}
}

// Resolve returns candidates sorted ascending by priority. Any resolver
// failure (timeout, NXDOMAIN) yields an empty list: for the caller that is a
// normal "no MX records" result, not an error. Only successful lookups are
// cached.
func (r *dnsResolver) Resolve(domain string) []Candidate {
	domain = strings.ToLower(domain)

	if cached, ok := r.cache.Get(domain); ok {
		return cached.([]Candidate)
	}

	records, err := net.LookupMX(domain)
	if err != nil {
		utils.Log.Debug("MX lookup for %s failed: %v", domain, err)
		return nil
	}

	candidates := make([]Candidate, 0, len(records))
	for _, mx := range records {
		host := strings.TrimSuffix(mx.Host, ".")
		if host == "" {
			continue
		}
		candidates = append(candidates, Candidate{Host: host, Priority: mx.Pref})
	}
	sortCandidates(candidates)

	if len(candidates) > 0 {
		r.cache.Set(domain, candidates, mxCacheTTL)
	}
	return candidates
}

// sortCandidates orders candidates ascending by priority, keeping the
// resolver's order for equal priorities
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
}

// fallbackCandidates synthesizes the legacy mail-host-by-A-record candidate
// used when a domain publishes no MX records: the bare domain at the lowest
// priority.
func fallbackCandidates(domain string) []Candidate {
	return []Candidate{{Host: domain, Priority: 0}}
}
