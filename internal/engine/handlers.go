package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/droidmcp/droidmcp/internal/jsonrpc"
	"github.com/droidmcp/droidmcp/internal/logctx"
	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
)

func (e *Engine) handleToolsList(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ListToolsRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	cap, ok, err := e.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported", nil), nil
	}

	var cursor *string
	if params.Cursor != "" {
		s := params.Cursor
		cursor = &s
	}

	page, err := cap.ListTools(ctx, sess, cursor)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	result := &mcp.ListToolsResult{Tools: page.Items}
	if page.NextCursor != nil {
		result.NextCursor = *page.NextCursor
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(page.Items)))
	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleToolCall(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}
	if params.Name == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing tool name"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	cap, ok, err := e.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported", nil), nil
	}

	reqID := req.ID.String()
	if reqID == "" {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", "missing request ID"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "missing request ID", nil), nil
	}

	// Register a cancellation rendezvous so a notifications/cancelled for
	// this request ID can interrupt the tool while it runs.
	toolCtx, done, err := e.trackToolCall(ctx, reqID)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	defer done()

	// Forward progress to the client when the call carries a progressToken.
	if params.Meta != nil && params.Meta.ProgressToken != nil {
		toolCtx = service.WithProgress(toolCtx, &progressEmitter{
			engine: e,
			sess:   sess,
			token:  params.Meta.ProgressToken,
		})
	}

	res, err := cap.CallTool(toolCtx, sess, &params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.InfoContext(ctx, "engine.handle_request.cancelled", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "cancelled", nil), nil
		}
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Bool("is_error", res != nil && res.IsError))
	return jsonrpc.NewResultResponse(req.ID, res)
}

// progressEmitter writes notifications/progress for an in-flight request.
type progressEmitter struct {
	engine *Engine
	sess   *service.Session
	token  mcp.ProgressToken
}

func (p *progressEmitter) Report(ctx context.Context, progress, total float64) error {
	p.engine.notify(ctx, p.sess, mcp.ProgressNotificationMethod, mcp.ProgressNotificationParams{
		ProgressToken: p.token,
		Progress:      progress,
		Total:         total,
	})
	return nil
}

func (e *Engine) handleResourcesList(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ListResourcesRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	cap, ok, err := e.srv.GetResourcesCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "resources capability not supported", nil), nil
	}

	var cursor *string
	if params.Cursor != "" {
		s := params.Cursor
		cursor = &s
	}

	page, err := cap.ListResources(ctx, sess, cursor)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	result := &mcp.ListResourcesResult{Resources: page.Items}
	if page.NextCursor != nil {
		result.NextCursor = *page.NextCursor
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("resource_count", len(page.Items)))
	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleResourcesTemplatesList(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ListResourceTemplatesRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	cap, ok, err := e.srv.GetResourcesCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "resources capability not supported", nil), nil
	}

	var cursor *string
	if params.Cursor != "" {
		s := params.Cursor
		cursor = &s
	}

	page, err := cap.ListResourceTemplates(ctx, sess, cursor)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	result := &mcp.ListResourceTemplatesResult{ResourceTemplates: page.Items}
	if page.NextCursor != nil {
		result.NextCursor = *page.NextCursor
	}
	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleResourcesRead(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ReadResourceRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "invalid params"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	cap, ok, err := e.srv.GetResourcesCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "resources capability not supported", nil), nil
	}

	contents, err := cap.ReadResource(ctx, sess, params.URI)
	if err != nil {
		log.InfoContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.String("uri", params.URI))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil), nil
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.String("uri", params.URI))
	return jsonrpc.NewResultResponse(req.ID, &mcp.ReadResourceResult{Contents: contents})
}

func (e *Engine) handleResourcesSubscribe(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.SubscribeRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "invalid params"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	resCap, ok, err := e.srv.GetResourcesCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || resCap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "resources capability not supported", nil), nil
	}
	subCap, hasSub, err := resCap.GetSubscriptionCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !hasSub || subCap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "subscriptions not supported", nil), nil
	}

	// Idempotency: duplicate subscriptions succeed without a second forwarder.
	e.subMu.Lock()
	if _, exists := e.subCancels[params.URI]; exists {
		e.subMu.Unlock()
		return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
	}
	e.subMu.Unlock()

	emit := func(cbCtx context.Context, uri string) {
		e.notify(cbCtx, sess, mcp.ResourcesUpdatedNotificationMethod, mcp.ResourceUpdatedNotification{URI: uri})
	}

	cancel, err := subCap.Subscribe(ctx, sess, params.URI, emit)
	if err != nil {
		log.InfoContext(ctx, "engine.handle_request.subscribe.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	e.subMu.Lock()
	e.subCancels[params.URI] = cancel
	e.subMu.Unlock()

	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleResourcesUnsubscribe(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.UnsubscribeRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "invalid params"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	e.subMu.Lock()
	cancel, exists := e.subCancels[params.URI]
	delete(e.subCancels, params.URI)
	e.subMu.Unlock()

	if exists && cancel != nil {
		_ = cancel(ctx)
	}

	if resCap, ok, err := e.srv.GetResourcesCapability(ctx, sess); err == nil && ok && resCap != nil {
		if subCap, hasSub, subErr := resCap.GetSubscriptionCapability(ctx, sess); subErr == nil && hasSub && subCap != nil {
			_ = subCap.Unsubscribe(ctx, sess, params.URI)
		}
	}

	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleSetLoggingLevel(ctx context.Context, sess *service.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.SetLevelRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	cap, ok, err := e.srv.GetLoggingCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "logging not supported", nil), nil
	}

	if err := cap.SetLevel(ctx, sess, params.Level); err != nil {
		if errors.Is(err, service.ErrInvalidLoggingLevel) {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}
