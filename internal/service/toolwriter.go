package service

import (
	"context"
	"errors"
	"sync"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

// ToolResponseWriter lets a tool handler incrementally compose a
// CallToolResult while optionally emitting progress notifications.
//
// Notes:
//   - It is concurrency-safe within a single request.
//   - Writes after finalization return ErrFinalized.
//   - Mutating methods check ctx.Done() and return the context error promptly.
//   - SendProgress delegates to the ambient ProgressReporter when present and
//     is a no-op otherwise.
type ToolResponseWriter interface {
	AppendText(text string) error
	AppendBlocks(blocks ...mcp.ContentBlock) error
	SetError(isError bool)
	SetMeta(key string, v any)
	SendProgress(progress, total float64) error
	// Result finalizes and returns the accumulated result. It is idempotent.
	Result() *mcp.CallToolResult
}

// ToolResponseWriterTyped extends ToolResponseWriter for typed-output tools.
type ToolResponseWriterTyped[O any] interface {
	ToolResponseWriter
	SetStructured(v O)
}

type toolResponseWriterTyped[O any] struct {
	ToolResponseWriter
	structured any
}

func (tw *toolResponseWriterTyped[O]) SetStructured(v O) { tw.structured = v }

// ErrFinalized is returned when writing after Result() was called.
var ErrFinalized = errors.New("result already finalized")

// noOutputPlaceholder is what clients see instead of an empty result. A
// result with zero content blocks risks being silently dropped by client
// UIs, so finalization always materializes at least one text block.
const noOutputPlaceholder = "(no output)"

type toolResponseWriter struct {
	ctx       context.Context
	mu        sync.Mutex
	finalized bool

	blocks  []mcp.ContentBlock
	isError bool
	meta    map[string]any
}

var _ ToolResponseWriter = (*toolResponseWriter)(nil)

func newToolResponseWriter(ctx context.Context) *toolResponseWriter {
	return &toolResponseWriter{ctx: ctx}
}

func (w *toolResponseWriter) AppendText(text string) error {
	if text == "" {
		return nil
	}
	return w.AppendBlocks(mcp.ContentBlock{Type: mcp.ContentTypeText, Text: text})
}

func (w *toolResponseWriter) AppendBlocks(blocks ...mcp.ContentBlock) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return ErrFinalized
	}
	if len(blocks) == 0 {
		return nil
	}
	w.blocks = append(w.blocks, blocks...)
	return nil
}

func (w *toolResponseWriter) SetError(isError bool) {
	w.mu.Lock()
	w.isError = isError
	w.mu.Unlock()
}

func (w *toolResponseWriter) SetMeta(key string, v any) {
	if key == "" {
		return
	}
	w.mu.Lock()
	if w.meta == nil {
		w.meta = make(map[string]any)
	}
	w.meta[key] = v
	w.mu.Unlock()
}

func (w *toolResponseWriter) SendProgress(progress, total float64) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if pr, ok := ProgressFrom(w.ctx); ok && pr != nil {
		return pr.Report(w.ctx, progress, total)
	}
	return nil
}

func (w *toolResponseWriter) Result() *mcp.CallToolResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finalized = true
	blocks := append([]mcp.ContentBlock(nil), w.blocks...)
	if len(blocks) == 0 {
		blocks = []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: noOutputPlaceholder}}
	}
	return &mcp.CallToolResult{
		Content:      blocks,
		IsError:      w.isError,
		BaseMetadata: mcp.BaseMetadata{Meta: cloneMeta(w.meta)},
	}
}

func cloneMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
