package notify

import (
	"context"
	"errors"
)

// Notification is one push to the person waiting on a campsite.
type Notification struct {
	Title    string
	Message  string
	Priority int
	// optional link attached to the message ("Book Now!")
	Url      string
	UrlTitle string
}

type Notifier interface {
	// Send delivers the notification. Implementations with missing
	// credentials log and return nil rather than failing the caller.
	Send(ctx context.Context, n Notification) error
}

// Multi fans a notification out to every notifier and joins the
// failures, a broken channel never blocks the others.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	var errlist []error
	for _, notifier := range m {
		err := notifier.Send(ctx, n)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
