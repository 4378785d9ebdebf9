package configs

import (
	"log/slog"
	"strings"
)

// Logger controls the structured logger: Level is the minimum level
// emitted ("debug", "info", "warn", "error"), Format selects the handler
// encoding ("text" or "json").
type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// SlogLevel maps the configured level onto slog. Unknown values mean info.
func (c Logger) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogFormat normalises the configured format; anything but "json" is text.
func (c Logger) SlogFormat() string {
	if strings.EqualFold(c.Format, "json") {
		return "json"
	}
	return "text"
}
