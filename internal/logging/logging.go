package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	base     zerolog.Logger
	baseOnce sync.Once
)

func root() zerolog.Logger {
	baseOnce.Do(func() {
		level := zerolog.InfoLevel
		if raw := os.Getenv("STARKEEP_LOG_LEVEL"); raw != "" {
			if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
				level = parsed
			}
		}
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		base = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	})
	return base
}

// New returns a logger tagged with the given component name.
func New(component string) zerolog.Logger {
	return root().With().Str("component", component).Logger()
}
