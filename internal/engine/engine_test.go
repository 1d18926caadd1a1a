package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/droidmcp/droidmcp/internal/jsonrpc"
	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
)

// captureWriter records outbound notification payloads.
type captureWriter struct {
	mu       sync.Mutex
	messages [][]byte
}

func (w *captureWriter) WriteMessage(_ context.Context, msg []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([]byte, len(msg))
	copy(cp, msg)
	w.messages = append(w.messages, cp)
	return nil
}

func (w *captureWriter) find(method string) (*jsonrpc.Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.messages {
		var m jsonrpc.AnyMessage
		if json.Unmarshal(b, &m) != nil {
			continue
		}
		if req := m.AsRequest(); req != nil && req.Method == method {
			return req, true
		}
	}
	return nil, false
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func newInitRequest(t *testing.T, version string) *jsonrpc.Request {
	t.Helper()
	return &jsonrpc.Request{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         string(mcp.InitializeMethod),
		ID:             jsonrpc.NewRequestID("init-1"),
		Params: mustJSON(t, mcp.InitializeRequest{
			ProtocolVersion: version,
			ClientInfo:      mcp.ImplementationInfo{Name: "client", Version: "0.0.1"},
		}),
	}
}

func initializedEngine(t *testing.T, srv service.ServerCapabilities, w *captureWriter) *Engine {
	t.Helper()
	e := New(srv, w)
	res, err := e.HandleRequest(context.Background(), newInitRequest(t, mcp.LatestProtocolVersion))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if res.Error != nil {
		t.Fatalf("initialize failed: %+v", res.Error)
	}
	note := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: string(mcp.InitializedNotificationMethod)}
	if err := e.HandleNotification(context.Background(), note); err != nil {
		t.Fatalf("initialized: %v", err)
	}
	return e
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	srv := service.NewServer(
		service.WithServerInfo(mcp.ImplementationInfo{Name: "test", Version: "1.0"}),
		service.WithInstructions("be careful"),
		service.WithToolsCapability(service.NewToolsContainer()),
	)
	e := New(srv, &captureWriter{})

	res, err := e.HandleRequest(context.Background(), newInitRequest(t, mcp.LatestProtocolVersion))
	if err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	if res.Error != nil {
		t.Fatalf("initialize failed: %+v", res.Error)
	}

	var initRes mcp.InitializeResult
	if err := json.Unmarshal(res.Result, &initRes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if initRes.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("protocol version = %q", initRes.ProtocolVersion)
	}
	if initRes.ServerInfo.Name != "test" {
		t.Fatalf("server info = %+v", initRes.ServerInfo)
	}
	if initRes.Instructions != "be careful" {
		t.Fatalf("instructions = %q", initRes.Instructions)
	}
	if initRes.Capabilities.Tools == nil || !initRes.Capabilities.Tools.ListChanged {
		t.Fatalf("tools capability = %+v", initRes.Capabilities.Tools)
	}
	if initRes.Capabilities.Resources != nil {
		t.Fatal("resources should not be advertised without a capability")
	}
}

func TestInitializeNegotiatesUnknownVersionDown(t *testing.T) {
	srv := service.NewServer(service.WithServerInfo(mcp.ImplementationInfo{Name: "t", Version: "1"}))
	e := New(srv, &captureWriter{})

	res, err := e.HandleRequest(context.Background(), newInitRequest(t, "9999-01-01"))
	if err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	var initRes mcp.InitializeResult
	if err := json.Unmarshal(res.Result, &initRes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if initRes.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("got %q, want latest", initRes.ProtocolVersion)
	}
}

func TestDoubleInitializeRejected(t *testing.T) {
	srv := service.NewServer(service.WithServerInfo(mcp.ImplementationInfo{Name: "t", Version: "1"}))
	e := New(srv, &captureWriter{})

	if _, err := e.HandleRequest(context.Background(), newInitRequest(t, mcp.LatestProtocolVersion)); err != nil {
		t.Fatal(err)
	}
	res, err := e.HandleRequest(context.Background(), newInitRequest(t, mcp.LatestProtocolVersion))
	if err != nil {
		t.Fatal(err)
	}
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("second initialize = %+v", res)
	}
}

func TestRequestBeforeInitializeRejected(t *testing.T) {
	srv := service.NewServer(service.WithToolsCapability(service.NewToolsContainer()))
	e := New(srv, &captureWriter{})

	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: string(mcp.ToolsListMethod), ID: jsonrpc.NewRequestID(1)}
	res, err := e.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("res = %+v", res)
	}
}

func TestPingWorksBeforeInitialize(t *testing.T) {
	srv := service.NewServer(service.WithServerInfo(mcp.ImplementationInfo{Name: "t", Version: "1"}))
	e := New(srv, &captureWriter{})

	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: string(mcp.PingMethod), ID: jsonrpc.NewRequestID(1)}
	res, err := e.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error != nil {
		t.Fatalf("ping failed: %+v", res.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	srv := service.NewServer(service.WithServerInfo(mcp.ImplementationInfo{Name: "t", Version: "1"}))
	e := initializedEngine(t, srv, &captureWriter{})

	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: "bogus/method", ID: jsonrpc.NewRequestID(2)}
	res, err := e.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Fatalf("res = %+v", res)
	}
}

func TestToolsListAndCall(t *testing.T) {
	echo := service.NewTool("echo", func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[struct {
		Text string `json:"text"`
	}]) error {
		return w.AppendText(r.Args().Text)
	})
	srv := service.NewServer(service.WithToolsCapability(service.NewToolsContainer(echo)))
	e := initializedEngine(t, srv, &captureWriter{})

	listReq := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: string(mcp.ToolsListMethod), ID: jsonrpc.NewRequestID(2)}
	res, err := e.HandleRequest(context.Background(), listReq)
	if err != nil {
		t.Fatal(err)
	}
	var list mcp.ListToolsResult
	if err := json.Unmarshal(res.Result, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "echo" {
		t.Fatalf("tools = %+v", list.Tools)
	}

	callReq := &jsonrpc.Request{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         string(mcp.ToolsCallMethod),
		ID:             jsonrpc.NewRequestID(3),
		Params:         mustJSON(t, map[string]any{"name": "echo", "arguments": map[string]string{"text": "hi"}}),
	}
	res, err = e.HandleRequest(context.Background(), callReq)
	if err != nil {
		t.Fatal(err)
	}
	var call mcp.CallToolResult
	if err := json.Unmarshal(res.Result, &call); err != nil {
		t.Fatal(err)
	}
	if call.IsError || len(call.Content) != 1 || call.Content[0].Text != "hi" {
		t.Fatalf("call result = %+v", call)
	}
}

func TestToolCallCancellation(t *testing.T) {
	// Clients cancel with the same id shape they used on the request, so
	// both string and numeric requestId forms must reach the in-flight call.
	cases := []struct {
		name       string
		id         *jsonrpc.RequestID
		noteParams string
	}{
		{"string id", jsonrpc.NewRequestID("call-1"), `{"requestId":"call-1","reason":"user gave up"}`},
		{"numeric id", jsonrpc.NewRequestID(7), `{"requestId":7,"reason":"user gave up"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			started := make(chan struct{})
			blocking := service.NewTool("block", func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[struct{}]) error {
				close(started)
				<-ctx.Done()
				return ctx.Err()
			})
			srv := service.NewServer(service.WithToolsCapability(service.NewToolsContainer(blocking)))
			e := initializedEngine(t, srv, &captureWriter{})

			type outcome struct {
				res *jsonrpc.Response
				err error
			}
			done := make(chan outcome, 1)
			go func() {
				req := &jsonrpc.Request{
					JSONRPCVersion: jsonrpc.ProtocolVersion,
					Method:         string(mcp.ToolsCallMethod),
					ID:             tc.id,
					Params:         mustJSON(t, map[string]any{"name": "block"}),
				}
				res, err := e.HandleRequest(context.Background(), req)
				done <- outcome{res: res, err: err}
			}()

			<-started
			note := &jsonrpc.Request{
				JSONRPCVersion: jsonrpc.ProtocolVersion,
				Method:         string(mcp.CancelledNotificationMethod),
				Params:         json.RawMessage(tc.noteParams),
			}
			if err := e.HandleNotification(context.Background(), note); err != nil {
				t.Fatal(err)
			}

			select {
			case out := <-done:
				if out.err != nil {
					t.Fatalf("HandleRequest: %v", out.err)
				}
				if out.res.Error == nil {
					t.Fatalf("expected error response, got %s", out.res.Result)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("cancellation did not unblock the call")
			}
		})
	}
}

func TestConcurrentInitializeSingleWinner(t *testing.T) {
	srv := service.NewServer(service.WithServerInfo(mcp.ImplementationInfo{Name: "t", Version: "1"}))
	e := New(srv, &captureWriter{})

	const n = 4
	req := newInitRequest(t, mcp.LatestProtocolVersion)
	results := make(chan *jsonrpc.Response, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.HandleRequest(context.Background(), req)
			if err != nil {
				t.Errorf("HandleRequest: %v", err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for res := range results {
		if res.Error == nil {
			ok++
		} else if res.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
			t.Fatalf("loser error = %+v", res.Error)
		}
	}
	if ok != 1 {
		t.Fatalf("%d initialize requests succeeded, want exactly 1", ok)
	}
}

func TestProgressForwarding(t *testing.T) {
	reporting := service.NewTool("work", func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[struct{}]) error {
		if err := w.SendProgress(0.5, 1); err != nil {
			return err
		}
		return w.AppendText("done")
	})
	srv := service.NewServer(service.WithToolsCapability(service.NewToolsContainer(reporting)))
	writer := &captureWriter{}
	e := initializedEngine(t, srv, writer)

	req := &jsonrpc.Request{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         string(mcp.ToolsCallMethod),
		ID:             jsonrpc.NewRequestID(5),
		Params:         mustJSON(t, map[string]any{"name": "work", "_meta": map[string]any{"progressToken": "tok-1"}}),
	}
	res, err := e.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error != nil {
		t.Fatalf("call failed: %+v", res.Error)
	}

	note, ok := writer.find(string(mcp.ProgressNotificationMethod))
	if !ok {
		t.Fatal("no progress notification written")
	}
	var params mcp.ProgressNotificationParams
	if err := json.Unmarshal(note.Params, &params); err != nil {
		t.Fatal(err)
	}
	if params.ProgressToken != "tok-1" || params.Progress != 0.5 {
		t.Fatalf("params = %+v", params)
	}
}

func TestToolsListChangedNotification(t *testing.T) {
	container := service.NewToolsContainer()
	srv := service.NewServer(service.WithToolsCapability(container))
	writer := &captureWriter{}
	_ = initializedEngine(t, srv, writer)

	container.Add(context.Background(), service.NewTool("late", func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[struct{}]) error {
		return nil
	}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := writer.find(string(mcp.ToolsListChangedNotificationMethod)); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("list_changed notification not emitted")
}
