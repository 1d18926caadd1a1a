package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/invopop/jsonschema"
)

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, session *Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolRequest is the container for tool call input and request metadata,
// generic over the typed argument struct A.
type ToolRequest[A any] struct {
	name string
	raw  json.RawMessage
	args A
}

func (r *ToolRequest[A]) Name() string                  { return r.name }
func (r *ToolRequest[A]) RawArguments() json.RawMessage { return r.raw }
func (r *ToolRequest[A]) Args() A                       { return r.args }

// ToolOption configures typed tool construction.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown argument fields
// are tolerated. When false (the default), the generated schema sets
// additionalProperties=false and runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// NewTool constructs a writer-based tool with typed input A. The input
// schema is reflected from A and down-converted to the MCP simplified form.
func NewTool[A any](name string, fn func(ctx context.Context, session *Session, w ToolResponseWriter, r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: reflectToMCPInputSchema[A](cfg.allowAdditionalProperties),
	}

	handler := func(ctx context.Context, session *Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		a, errRes := decodeArgs[A](req.Arguments, cfg.allowAdditionalProperties)
		if errRes != nil {
			return errRes, nil
		}
		w := newToolResponseWriter(ctx)
		r := &ToolRequest[A]{name: req.Name, raw: req.Arguments, args: a}
		if err := fn(ctx, session, w, r); err != nil {
			return nil, err
		}
		return w.Result(), nil
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// NewToolWithOutput constructs a typed-input, typed-output tool. O is
// reflected into the tool's OutputSchema and values set via SetStructured
// land in the result's structuredContent.
func NewToolWithOutput[A, O any](name string, fn func(ctx context.Context, session *Session, w ToolResponseWriterTyped[O], r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	outSchema := reflectToMCPOutputSchema[O]()
	desc := mcp.Tool{
		Name:         name,
		Description:  cfg.description,
		InputSchema:  reflectToMCPInputSchema[A](cfg.allowAdditionalProperties),
		OutputSchema: &outSchema,
	}

	handler := func(ctx context.Context, session *Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		a, errRes := decodeArgs[A](req.Arguments, cfg.allowAdditionalProperties)
		if errRes != nil {
			return errRes, nil
		}
		base := newToolResponseWriter(ctx)
		tw := &toolResponseWriterTyped[O]{ToolResponseWriter: base}
		r := &ToolRequest[A]{name: req.Name, raw: req.Arguments, args: a}
		if err := fn(ctx, session, tw, r); err != nil {
			return nil, err
		}
		res := base.Result()
		if tw.structured != nil {
			b, err := json.Marshal(tw.structured)
			if err != nil {
				return nil, fmt.Errorf("encode structured content for %s: %w", req.Name, err)
			}
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return nil, fmt.Errorf("encode structured content for %s: %w", req.Name, err)
			}
			res.StructuredContent = m
		}
		return res, nil
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// decodeArgs unmarshals raw arguments into A. Domain-level decode failures
// are reported as isError results, not Go errors, so the client always sees
// a response.
func decodeArgs[A any](raw json.RawMessage, allowAdditional bool) (A, *mcp.CallToolResult) {
	var a A
	if len(raw) == 0 {
		return a, nil
	}
	if allowAdditional {
		if err := json.Unmarshal(raw, &a); err != nil {
			return a, Errorf("invalid arguments: %v", err)
		}
		return a, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return a, Errorf("invalid arguments: %v", err)
	}
	return a, nil
}

// reflectToMCPInputSchema reflects Go type A into a jsonschema.Schema and
// converts it to the simplified mcp.ToolInputSchema.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		AllowAdditionalProperties: allowAdditional,
	}
	// ExpandedStruct resolves the root definition by type name, which
	// anonymous structs do not have; they reflect inline without it.
	r.ExpandedStruct = reflect.TypeFor[A]().Name() != ""
	s := r.Reflect(new(A))
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

// reflectToMCPOutputSchema reflects Go type O into an mcp.ToolOutputSchema.
// The schema is always an object per the protocol.
func reflectToMCPOutputSchema[O any]() mcp.ToolOutputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	r.ExpandedStruct = reflect.TypeFor[O]().Name() != ""
	s := r.Reflect(new(O))
	if s == nil || s.Type != "object" {
		return mcp.ToolOutputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}}
	}
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolOutputSchema{Type: "object", Properties: props, Required: required}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP
// SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// ToolsContainer owns a mutable, threadsafe set of tool descriptors and
// handlers, with pagination and listChanged support via ChangeNotifier.
type ToolsContainer struct {
	mu       sync.RWMutex
	tools    []mcp.Tool
	handlers map[string]ToolHandler

	notifier ChangeNotifier

	pageSize int
}

// NewToolsContainer constructs a container holding the given tools.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	tc := &ToolsContainer{pageSize: 50}
	tc.Replace(context.Background(), defs...)
	return tc
}

// SetPageSize sets the pagination size used by ListTools. Non-positive
// values are ignored.
func (tc *ToolsContainer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	tc.mu.Lock()
	tc.pageSize = n
	tc.mu.Unlock()
}

// Snapshot returns a copy of the current tool descriptors.
func (tc *ToolsContainer) Snapshot() []mcp.Tool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	out := make([]mcp.Tool, len(tc.tools))
	copy(out, tc.tools)
	return out
}

// Replace atomically replaces the entire tool set. Duplicate names resolve
// last-write-wins.
func (tc *ToolsContainer) Replace(_ context.Context, defs ...StaticTool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tools = tc.tools[:0]
	tc.handlers = make(map[string]ToolHandler, len(defs))
	for _, d := range defs {
		tc.tools = append(tc.tools, d.Descriptor)
		if d.Handler != nil {
			tc.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	go func() { _ = tc.notifier.Notify(context.Background()) }()
}

// Add registers a new tool unless the name is already taken. Returns true if
// added.
func (tc *ToolsContainer) Add(_ context.Context, def StaticTool) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.handlers == nil {
		tc.handlers = make(map[string]ToolHandler)
	}
	name := def.Descriptor.Name
	if _, exists := tc.handlers[name]; exists {
		return false
	}
	for _, t := range tc.tools {
		if t.Name == name {
			return false
		}
	}
	tc.tools = append(tc.tools, def.Descriptor)
	if def.Handler != nil {
		tc.handlers[name] = def.Handler
	}
	go func() { _ = tc.notifier.Notify(context.Background()) }()
	return true
}

// Remove removes a tool by name. Returns true if removed.
func (tc *ToolsContainer) Remove(_ context.Context, name string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	n := 0
	removed := false
	for _, t := range tc.tools {
		if t.Name == name {
			removed = true
			continue
		}
		tc.tools[n] = t
		n++
	}
	if removed {
		tc.tools = tc.tools[:n]
		delete(tc.handlers, name)
		go func() { _ = tc.notifier.Notify(context.Background()) }()
	}
	return removed
}

// ListTools implements ToolsCapability with offset-cursor pagination.
func (tc *ToolsContainer) ListTools(ctx context.Context, session *Session, cursor *string) (Page[mcp.Tool], error) {
	tc.mu.RLock()
	all := make([]mcp.Tool, len(tc.tools))
	copy(all, tc.tools)
	pageSize := tc.pageSize
	tc.mu.RUnlock()
	return pageSlice(all, pageSize, cursor), nil
}

// CallTool implements ToolsCapability by dispatching to the named handler.
func (tc *ToolsContainer) CallTool(ctx context.Context, session *Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	tc.mu.RLock()
	h := tc.handlers[req.Name]
	tc.mu.RUnlock()
	if h == nil {
		return Errorf("tool not found: %s", req.Name), nil
	}
	return h(ctx, session, req)
}

// GetListChangedCapability always reports listChanged support for a
// container-backed tool set.
func (tc *ToolsContainer) GetListChangedCapability(ctx context.Context, session *Session) (ToolListChangedCapability, bool, error) {
	return toolsListChangedFromSubscriber{sub: tc}, true, nil
}

// Subscriber implements ChangeSubscriber.
func (tc *ToolsContainer) Subscriber() <-chan struct{} {
	return tc.notifier.Subscriber()
}

// toolsListChangedFromSubscriber adapts a ChangeSubscriber to
// ToolListChangedCapability.
type toolsListChangedFromSubscriber struct{ sub ChangeSubscriber }

func (t toolsListChangedFromSubscriber) Register(ctx context.Context, session *Session, fn NotifyToolsListChangedFunc) (bool, error) {
	if t.sub == nil || fn == nil {
		return false, nil
	}
	ch := t.sub.Subscriber()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				fn(ctx, session)
			}
		}
	}()
	return true, nil
}

// TextResult builds a single-text-block CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and
// IsError set.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: msg}}, IsError: true}
}
