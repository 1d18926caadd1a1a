package stdio

import (
	"io"
	"log/slog"
	"os"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets both the inbound reader and outbound writer.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		h.in = r
		h.out = w
	}
}

// WithReader sets the inbound message reader.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		h.in = r
	}
}

// WithWriter sets the outbound message writer.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		h.out = w
	}
}

// WithLogger sets the handler and engine logger. Logs must never go to the
// outbound stream; stdio transports reserve stdout for protocol messages.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func applyDefaults(h *Handler) {
	if h.in == nil {
		h.in = os.Stdin
	}
	if h.out == nil {
		h.out = os.Stdout
	}
}
