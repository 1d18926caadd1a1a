// Package engine routes MCP JSON-RPC traffic for a single connection to the
// capability surface supplied by the application. It owns the initialize
// lifecycle, request dispatch, in-flight tool-call cancellation, progress
// forwarding, and resource subscription bookkeeping. Transports feed it
// decoded jsonrpc messages and write back whatever it returns.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/droidmcp/droidmcp/internal/jsonrpc"
	"github.com/droidmcp/droidmcp/internal/logctx"
	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
	"github.com/google/uuid"
)

// Engine drives one MCP session over one connection.
type Engine struct {
	srv    service.ServerCapabilities
	writer service.MessageWriter
	log    *slog.Logger

	mu      sync.Mutex
	session *service.Session

	toolCtxMu      sync.Mutex
	toolCtxCancels map[string]context.CancelCauseFunc

	subMu      sync.Mutex
	subCancels map[string]service.CancelSubscription
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger overrides the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New constructs an Engine serving srv. Outbound notifications are written
// through w.
func New(srv service.ServerCapabilities, w service.MessageWriter, opts ...Option) *Engine {
	e := &Engine{
		srv:            srv,
		writer:         w,
		log:            slog.Default(),
		toolCtxCancels: make(map[string]context.CancelCauseFunc),
		subCancels:     make(map[string]service.CancelSubscription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the active session, or nil before initialize.
func (e *Engine) Session() *service.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// HandleRequest dispatches a JSON-RPC request and returns the response to
// write. Transport-level failures are the only error returns; protocol
// failures come back as JSON-RPC error responses.
func (e *Engine) HandleRequest(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})

	if req.Method == string(mcp.InitializeMethod) {
		return e.handleInitialize(ctx, req)
	}
	if req.Method == string(mcp.PingMethod) {
		return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
	}

	sess := e.Session()
	if sess == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "server not initialized", nil), nil
	}

	switch req.Method {
	case string(mcp.ToolsListMethod):
		return e.handleToolsList(ctx, sess, req)
	case string(mcp.ToolsCallMethod):
		return e.handleToolCall(ctx, sess, req)
	case string(mcp.ResourcesListMethod):
		return e.handleResourcesList(ctx, sess, req)
	case string(mcp.ResourcesReadMethod):
		return e.handleResourcesRead(ctx, sess, req)
	case string(mcp.ResourcesTemplatesListMethod):
		return e.handleResourcesTemplatesList(ctx, sess, req)
	case string(mcp.ResourcesSubscribeMethod):
		return e.handleResourcesSubscribe(ctx, sess, req)
	case string(mcp.ResourcesUnsubscribeMethod):
		return e.handleResourcesUnsubscribe(ctx, sess, req)
	case string(mcp.LoggingSetLevelMethod):
		return e.handleSetLoggingLevel(ctx, sess, req)
	}

	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil), nil
}

// HandleNotification processes a client notification. Unknown notifications
// are logged and dropped per the JSON-RPC contract.
func (e *Engine) HandleNotification(ctx context.Context, note *jsonrpc.Request) error {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: note.Method, Type: "notification"})

	switch note.Method {
	case string(mcp.InitializedNotificationMethod):
		e.log.DebugContext(ctx, "engine.session.initialized")
		return nil
	case string(mcp.CancelledNotificationMethod):
		var params mcp.CancelledNotification
		if err := json.Unmarshal(note.Params, &params); err != nil {
			e.log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("err", err.Error()))
			return nil
		}
		if e.cancelInFlightRequest(params.RequestID.String(), params.Reason) {
			e.log.InfoContext(ctx, "engine.request.cancelled", slog.String("request_id", params.RequestID.String()), slog.String("reason", params.Reason))
		}
		return nil
	}

	e.log.DebugContext(ctx, "engine.handle_notification.ignored", slog.String("method", note.Method))
	return nil
}

// Close cancels in-flight tool calls and tears down subscriptions.
func (e *Engine) Close(ctx context.Context) {
	e.toolCtxMu.Lock()
	for id, cancel := range e.toolCtxCancels {
		cancel(context.Canceled)
		delete(e.toolCtxCancels, id)
	}
	e.toolCtxMu.Unlock()

	e.subMu.Lock()
	cancels := e.subCancels
	e.subCancels = make(map[string]service.CancelSubscription)
	e.subMu.Unlock()
	for _, cancel := range cancels {
		_ = cancel(ctx)
	}
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.InitializeRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "already initialized", nil), nil
	}
	e.mu.Unlock()

	// Version negotiation: echo a supported client version, otherwise answer
	// with the newest revision we speak and let the client decide.
	negotiated := params.ProtocolVersion
	if !mcp.IsSupportedProtocolVersion(negotiated) {
		negotiated = mcp.LatestProtocolVersion
	}

	sess := service.NewSession(uuid.NewString(), negotiated, params.ClientInfo, e.writer)

	serverInfo, err := e.srv.GetServerInfo(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	initRes := &mcp.InitializeResult{
		ProtocolVersion: negotiated,
		Capabilities:    mcp.ServerCapabilities{},
		ServerInfo:      serverInfo,
	}

	if instr, ok, err := e.srv.GetInstructions(ctx, sess); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	} else if ok {
		initRes.Instructions = instr
	}

	if toolsCap, ok, err := e.srv.GetToolsCapability(ctx, sess); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	} else if ok && toolsCap != nil {
		entry := &struct {
			ListChanged bool `json:"listChanged"`
		}{}
		if lcCap, hasLC, lcErr := toolsCap.GetListChangedCapability(ctx, sess); lcErr == nil && hasLC && lcCap != nil {
			entry.ListChanged = true
		}
		initRes.Capabilities.Tools = entry
	}

	if resCap, ok, err := e.srv.GetResourcesCapability(ctx, sess); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	} else if ok && resCap != nil {
		entry := &struct {
			ListChanged bool `json:"listChanged"`
			Subscribe   bool `json:"subscribe"`
		}{}
		if subCap, hasSub, subErr := resCap.GetSubscriptionCapability(ctx, sess); subErr == nil && hasSub && subCap != nil {
			entry.Subscribe = true
		}
		if lcCap, hasLC, lcErr := resCap.GetListChangedCapability(ctx, sess); lcErr == nil && hasLC && lcCap != nil {
			entry.ListChanged = true
		}
		initRes.Capabilities.Resources = entry
	}

	if _, ok, err := e.srv.GetLoggingCapability(ctx, sess); err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	} else if ok {
		initRes.Capabilities.Logging = &struct{}{}
	}

	// Re-check under the lock: a concurrent initialize may have won while
	// capabilities were being gathered.
	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "already initialized", nil), nil
	}
	e.session = sess
	e.mu.Unlock()

	e.registerListChangedEmitters(ctx, sess)

	log.InfoContext(ctx, "engine.session.created",
		slog.String("session_id", sess.SessionID()),
		slog.String("protocol_version", negotiated),
		slog.String("client", params.ClientInfo.Name),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()))

	return jsonrpc.NewResultResponse(req.ID, initRes)
}

// registerListChangedEmitters forwards container change signals to the
// client as list_changed notifications. Emission is best-effort.
func (e *Engine) registerListChangedEmitters(ctx context.Context, sess *service.Session) {
	if toolsCap, ok, err := e.srv.GetToolsCapability(ctx, sess); err == nil && ok && toolsCap != nil {
		if lcCap, hasLC, lcErr := toolsCap.GetListChangedCapability(ctx, sess); lcErr == nil && hasLC && lcCap != nil {
			_, _ = lcCap.Register(ctx, sess, func(cbCtx context.Context, s *service.Session) {
				e.notify(cbCtx, s, mcp.ToolsListChangedNotificationMethod, nil)
			})
		}
	}
	if resCap, ok, err := e.srv.GetResourcesCapability(ctx, sess); err == nil && ok && resCap != nil {
		if lcCap, hasLC, lcErr := resCap.GetListChangedCapability(ctx, sess); lcErr == nil && hasLC && lcCap != nil {
			_, _ = lcCap.Register(ctx, sess, func(cbCtx context.Context, s *service.Session, uri string) {
				e.notify(cbCtx, s, mcp.ResourcesListChangedNotificationMethod, nil)
			})
		}
	}
}

// notify serializes and writes a notification to the session.
func (e *Engine) notify(ctx context.Context, sess *service.Session, method mcp.Method, params any) {
	note, err := jsonrpc.NewRequest(nil, string(method), params)
	if err != nil {
		e.log.ErrorContext(ctx, "engine.notify.encode_fail", slog.String("err", err.Error()))
		return
	}
	b, err := json.Marshal(note)
	if err != nil {
		e.log.ErrorContext(ctx, "engine.notify.encode_fail", slog.String("err", err.Error()))
		return
	}
	if err := sess.WriteMessage(context.WithoutCancel(ctx), b); err != nil {
		e.log.ErrorContext(ctx, "engine.notify.write_fail", slog.String("err", err.Error()))
	}
}

func (e *Engine) cancelInFlightRequest(reqID, reason string) bool {
	if reqID == "" {
		return false
	}
	e.toolCtxMu.Lock()
	cancel, ok := e.toolCtxCancels[reqID]
	e.toolCtxMu.Unlock()
	if !ok {
		return false
	}
	cancel(fmt.Errorf("cancelled by client: %s", reason))
	return true
}

var errDuplicateRequestID = errors.New("duplicate request id")

// trackToolCall registers a cancellable context for an in-flight tool call.
func (e *Engine) trackToolCall(ctx context.Context, reqID string) (context.Context, func(), error) {
	toolCtx, cancel := context.WithCancelCause(ctx)
	e.toolCtxMu.Lock()
	if _, exists := e.toolCtxCancels[reqID]; exists {
		e.toolCtxMu.Unlock()
		cancel(context.Canceled)
		return nil, nil, errDuplicateRequestID
	}
	e.toolCtxCancels[reqID] = cancel
	e.toolCtxMu.Unlock()

	done := func() {
		e.toolCtxMu.Lock()
		delete(e.toolCtxCancels, reqID)
		e.toolCtxMu.Unlock()
		cancel(context.Canceled)
	}
	return toolCtx, done, nil
}
