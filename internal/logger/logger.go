package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to w. When pretty is set the
// output goes through zerolog's console writer instead of raw JSON.
func New(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "studyroom").Logger(), nil
}
