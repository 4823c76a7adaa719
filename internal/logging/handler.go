// Package logging is the slog handler used by the terminal client.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type Handler struct {
	mu     *sync.Mutex
	l      *log.Logger
	level  slog.Leveler
	colors bool
	attrs  []slog.Attr
	group  string
}

// NewHandler prints "time level message key=value ..." lines to out.
func NewHandler(out io.Writer, level slog.Leveler, colors bool) *Handler {
	return &Handler{
		mu:     &sync.Mutex{},
		l:      log.New(out, "", 0),
		level:  level,
		colors: colors,
	}
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	if h.colors {
		level = h.paintLevel(r.Level, level)
	}

	var attrs strings.Builder
	for _, attr := range h.attrs {
		h.writeAttr(&attrs, "", attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&attrs, h.group, a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.l.Println(
		r.Time.Format("15:04:05.000"),
		level,
		r.Message,
		strings.TrimSpace(attrs.String()),
	)
	return nil
}

func (h *Handler) paintLevel(level slog.Level, text string) string {
	switch {
	case level >= slog.LevelError:
		return color.RedString(text)
	case level >= slog.LevelWarn:
		return color.YellowString(text)
	case level >= slog.LevelInfo:
		return color.HiBlueString(text)
	default:
		return color.MagentaString(text)
	}
}

func (h *Handler) writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, nested := range a.Value.Group() {
			h.writeAttr(b, key, nested)
		}
		return
	}

	if h.colors {
		key = color.GreenString(key)
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(fmt.Sprint(a.Value.Any()))
	b.WriteByte(' ')
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		if h.group != "" {
			attr.Key = h.group + "." + attr.Key
		}
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	clone.group = name
	return &clone
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}
