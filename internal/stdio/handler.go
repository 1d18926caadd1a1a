// Package stdio serves MCP over newline-delimited JSON-RPC on a byte stream,
// typically the process's stdin/stdout. Each line is one message; responses
// and server-initiated notifications are written as whole lines under a
// single write lock so concurrent handlers never interleave output.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/droidmcp/droidmcp/internal/engine"
	"github.com/droidmcp/droidmcp/internal/jsonrpc"
	"github.com/droidmcp/droidmcp/internal/service"
)

// maxLineBytes bounds a single inbound message. Screenshot payloads travel
// outbound only, so inbound lines stay small in practice.
const maxLineBytes = 16 * 1024 * 1024

// Handler reads JSON-RPC messages line by line and dispatches them to an
// Engine. Requests are served concurrently; notifications are handled in
// arrival order on the read loop.
type Handler struct {
	in  io.Reader
	out io.Writer
	log *slog.Logger

	eng *engine.Engine

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewHandler builds a stdio Handler serving srv. The handler itself is the
// session's outbound message writer.
func NewHandler(srv service.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	applyDefaults(h)
	h.eng = engine.New(srv, h, engine.WithLogger(h.log))
	return h
}

// WriteMessage writes one outbound message as a single line. It implements
// service.MessageWriter for server-initiated notifications.
func (h *Handler) WriteMessage(ctx context.Context, msg []byte) error {
	return h.writeLine(msg)
}

// Serve reads messages until EOF or ctx cancellation, then waits for
// in-flight requests and tears the engine down.
func (h *Handler) Serve(ctx context.Context) error {
	defer func() {
		h.wg.Wait()
		h.eng.Close(context.WithoutCancel(ctx))
	}()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(h.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil && !errors.Is(err, io.EOF) {
						return err
					}
				default:
				}
				return nil
			}
			h.dispatchLine(ctx, line)
		}
	}
}

func (h *Handler) dispatchLine(ctx context.Context, line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		h.log.InfoContext(ctx, "stdio.parse_error", slog.String("err", err.Error()))
		h.writeResponse(ctx, jsonrpc.NewErrorResponse(jsonrpc.NewRequestID(nil), jsonrpc.ErrorCodeParseError, "parse error", nil))
		return
	}

	switch msg.Type() {
	case jsonrpc.TypeRequest:
		req := msg.AsRequest()
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			res, err := h.eng.HandleRequest(ctx, req)
			if err != nil {
				h.log.ErrorContext(ctx, "stdio.handle_request_fail", slog.String("err", err.Error()))
				res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
			}
			if res != nil {
				h.writeResponse(ctx, res)
			}
		}()
	case jsonrpc.TypeNotification:
		if err := h.eng.HandleNotification(ctx, msg.AsRequest()); err != nil {
			h.log.InfoContext(ctx, "stdio.handle_notification_fail", slog.String("err", err.Error()))
		}
	case jsonrpc.TypeResponse:
		// This server never issues client-bound requests, so inbound
		// responses have nothing to correlate with.
		h.log.DebugContext(ctx, "stdio.response_ignored")
	}
}

func (h *Handler) writeResponse(ctx context.Context, res *jsonrpc.Response) {
	b, err := json.Marshal(res)
	if err != nil {
		h.log.ErrorContext(ctx, "stdio.encode_fail", slog.String("err", err.Error()))
		return
	}
	if err := h.writeLine(b); err != nil {
		h.log.ErrorContext(ctx, "stdio.write_fail", slog.String("err", err.Error()))
	}
}

func (h *Handler) writeLine(b []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.out.Write(b); err != nil {
		return err
	}
	_, err := h.out.Write([]byte{'\n'})
	return err
}
