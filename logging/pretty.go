package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
)

// PrettyHandler writes one indented JSON object per record. It is meant for
// humans watching a dev server, not for shipping.
//
// Encoding is left to slog's JSON handler; records are rendered into a
// shared buffer and re-indented on the way out.
type PrettyHandler struct {
	inner slog.Handler
	w     io.Writer
	mu    *sync.Mutex
	buf   *bytes.Buffer
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var o slog.HandlerOptions
	if opts != nil {
		o = *opts
	}
	o.ReplaceAttr = shortSource(o.ReplaceAttr)

	buf := &bytes.Buffer{}
	return &PrettyHandler{
		inner: slog.NewJSONHandler(buf, &o),
		w:     w,
		mu:    &sync.Mutex{},
		buf:   buf,
	}
}

func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimRight(h.buf.Bytes(), "\n"), "", "  "); err != nil {
		// Fall back to the compact line.
		out.Reset()
		out.Write(bytes.TrimRight(h.buf.Bytes(), "\n"))
	}
	out.WriteByte('\n')
	_, err := h.w.Write(out.Bytes())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(h.inner.WithAttrs(attrs))
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return h.derive(h.inner.WithGroup(name))
}

// derive keeps the buffer and lock shared with the parent, since the derived
// JSON handler still writes into the same buffer.
func (h *PrettyHandler) derive(inner slog.Handler) *PrettyHandler {
	return &PrettyHandler{inner: inner, w: h.w, mu: h.mu, buf: h.buf}
}

// shortSource renders the source attribute as file:line.
func shortSource(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.SourceKey {
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
				a.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
			}
		}
		if next != nil {
			return next(groups, a)
		}
		return a
	}
}
