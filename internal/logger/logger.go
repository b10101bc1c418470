// README: Structured JSON logger (log/slog) shared by services and HTTP middleware.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// New returns a JSON logger writing to w (stdout when nil) at the given level name.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lv := new(slog.LevelVar)
	switch strings.ToUpper(level) {
	case "DEBUG":
		lv.Set(slog.LevelDebug)
	case "WARN":
		lv.Set(slog.LevelWarn)
	case "ERROR":
		lv.Set(slog.LevelError)
	default:
		lv.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lv,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String("timestamp", t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	})

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return slog.New(handler).With("service", "openseat-api", "hostname", host)
}

// Discard drops every record; used when a caller passes no logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Action tags subsequent records with the operation being performed.
func Action(l *slog.Logger, action string) *slog.Logger {
	return OrDiscard(l).With("action", action)
}

func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
