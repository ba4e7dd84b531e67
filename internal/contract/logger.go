package contract

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ParseLogLevel maps a level name onto a zerolog level.
func ParseLogLevel(level string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.NoLevel, fmt.Errorf("invalid log-level '%s'. must be trace, debug, info, warn, error", level)
	}
	return lvl, nil
}

// NewLogger returns a console logger writing to w at the given level.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(output).With().Timestamp().Logger().Level(lvl), nil
}
