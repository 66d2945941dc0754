// Package logging builds the process-wide slog logger. Levels are coloured
// with lipgloss when the destination is a terminal and left plain otherwise.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const timeLayout = "2006-01-02T15:04:05"

// ParseLevel converts debug, info, warn, or error (any case) to a slog.Level.
// An empty string is info.
func ParseLevel(value string) (slog.Level, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", value, err)
	}
	return level, nil
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, level))
}

// NewHandler returns a slog.TextHandler whose level and time attributes are
// rewritten for humans.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	styles := newLevelStyles(lipgloss.NewRenderer(w))
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if a.Value.Kind() == slog.KindTime {
					return slog.String(slog.TimeKey, a.Value.Time().Format(timeLayout))
				}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, styles.render(lvl))
				}
			}
			return a
		},
	})
}

type levelStyles struct {
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

func newLevelStyles(r *lipgloss.Renderer) levelStyles {
	return levelStyles{
		debug: r.NewStyle().Foreground(lipgloss.Color("#6272A4")),
		info:  r.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#F1FA8C")),
		err:   r.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
	}
}

func (s levelStyles) render(level slog.Level) string {
	text := level.String()
	switch {
	case level >= slog.LevelError:
		return s.err.Render(text)
	case level >= slog.LevelWarn:
		return s.warn.Render(text)
	case level >= slog.LevelInfo:
		return s.info.Render(text)
	default:
		return s.debug.Render(text)
	}
}
