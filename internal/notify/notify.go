package notify

import (
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
	"github.com/starkeep/starkeep/internal/logging"
)

const maxBodyLen = 200

// Notifier sends short status toasts for engine outcomes. When desktop
// notifications are disabled or unavailable the message falls back to stderr.
type Notifier struct {
	enabled bool
	log     zerolog.Logger
}

// New creates a notifier. enabled=false routes everything to stderr.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, log: logging.New("notify")}
}

// Info sends an informational toast.
func (n *Notifier) Info(title, body string) {
	n.send(title, body)
}

// Success reports a completed operation.
func (n *Notifier) Success(title, body string) {
	n.send(title, body)
}

// Warning reports a degraded outcome.
func (n *Notifier) Warning(title, body string) {
	n.send("⚠ "+title, body)
}

// Error reports a failure.
func (n *Notifier) Error(title, body string) {
	n.send("✗ "+title, body)
}

func (n *Notifier) send(title, body string) {
	body = truncate(body, maxBodyLen)
	if n.enabled {
		err := beeep.Notify(title, body, "")
		if err == nil {
			return
		}
		n.log.Debug().Err(err).Msg("desktop notification failed, falling back to stderr")
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, body)
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
