// Package notify fans structured events out to registered transports.
// Transports are best-effort: a failing transport is logged and skipped so it
// can never block the event that triggered it.
package notify

import (
	"context"
	"sync"

	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// Event is a notification addressed to a single user
type Event struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Transport delivers events over one channel (web, email, ...)
type Transport interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Dispatcher routes events to every registered transport
type Dispatcher struct {
	transports map[string]Transport
	mu         sync.RWMutex
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		transports: make(map[string]Transport),
	}
}

// Register adds a transport under its name, replacing any previous one
func (d *Dispatcher) Register(t Transport) {
	d.mu.Lock()
	d.transports[t.Name()] = t
	d.mu.Unlock()

	utils.Log.Info("Notification transport registered: %s", t.Name())
}

// Unregister removes a transport by name
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	delete(d.transports, name)
	d.mu.Unlock()
}

// Dispatch sends the event to all transports. Transport failures are logged,
// never returned: the primary action that emitted the event must not fail
// because a notification channel is down.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	d.mu.RLock()
	transports := make([]Transport, 0, len(d.transports))
	for _, t := range d.transports {
		transports = append(transports, t)
	}
	d.mu.RUnlock()

	for _, t := range transports {
		if err := t.Notify(ctx, event); err != nil {
			utils.Log.Warn("Notification transport %s failed for user %s: %v", t.Name(), event.UserID, err)
		}
	}
}
