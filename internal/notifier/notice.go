package notifier

import (
	"context"
	"log"
)

// Noticer delivers a short human-readable message to the user.
type Noticer interface {
	Notify(ctx context.Context, msg string) error
}

// LogNoticer writes notices to the process log. Used when no chat channel
// is configured.
type LogNoticer struct{}

func (LogNoticer) Notify(_ context.Context, msg string) error {
	log.Printf("[NOTICE] %s", msg)
	return nil
}
