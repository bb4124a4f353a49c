// Package notifier
package notifier

// Notifier interface for sending trigger alerts (e.g., Telegram).
type Notifier interface {
	Send(msg string) error
	SendWithRetry(msg string) error
}

// Nop is a Notifier that discards every message. Used when no
// Telegram credentials are configured.
type Nop struct{}

func (Nop) Send(string) error          { return nil }
func (Nop) SendWithRetry(string) error { return nil }
