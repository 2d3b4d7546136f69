package mail

import (
	"context"

	"github.com/jaimemartinez/wordjs-sub005/notify"
)

// DispatcherNotifier adapts the notification dispatcher to the Notifier
// interface used by the mailer and the listener.
type DispatcherNotifier struct {
	dispatcher *notify.Dispatcher
}

// NewDispatcherNotifier wraps a dispatcher
func NewDispatcherNotifier(d *notify.Dispatcher) *DispatcherNotifier {
	return &DispatcherNotifier{dispatcher: d}
}

func (n *DispatcherNotifier) NotifyUser(ctx context.Context, userID, title, message string) {
	n.dispatcher.Dispatch(ctx, notify.Event{
		UserID:  userID,
		Title:   title,
		Message: message,
	})
}

// EmailTransport delivers notification events by mail: it resolves the
// user's canonical address and sends the title/message as subject/body. Its
// sends never emit further notifications.
type EmailTransport struct {
	mailer    *Mailer
	directory Directory
}

// NewEmailTransport creates the "email" notification transport
func NewEmailTransport(mailer *Mailer, directory Directory) *EmailTransport {
	return &EmailTransport{mailer: mailer, directory: directory}
}

func (t *EmailTransport) Name() string {
	return "email"
}

// Notify sends the event by mail. Errors are returned for the dispatcher to
// log; they are never allowed to fail the event that triggered them.
func (t *EmailTransport) Notify(ctx context.Context, event notify.Event) error {
	user, err := t.directory.GetUser(ctx, event.UserID)
	if err != nil {
		return err
	}

	_, err = t.mailer.SendQuiet(ctx, SendRequest{
		To:       user.Email,
		Subject:  event.Title,
		TextBody: event.Message,
	})
	return err
}
