package logger

import (
	"context"
	"io"
	"log/slog"
)

// ColorHandler wraps slog.TextHandler and prefixes the message with an
// ANSI-colored level tag for terminal output.
type ColorHandler struct {
	*slog.TextHandler
}

func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	return &ColorHandler{TextHandler: slog.NewTextHandler(w, opts)}
}

func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	var color string
	switch r.Level {
	case slog.LevelDebug:
		color = "\033[36m"
	case slog.LevelWarn:
		color = "\033[33m"
	case slog.LevelError:
		color = "\033[31m"
	default:
		color = "\033[32m"
	}
	r.Message = color + r.Level.String() + "\033[0m " + r.Message
	return h.TextHandler.Handle(ctx, r)
}
