package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

type echoArgs struct {
	Text   string `json:"text" jsonschema:"description=Text to echo"`
	Repeat int    `json:"repeat,omitempty"`
}

func newEchoTool() StaticTool {
	return NewTool("echo", func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[echoArgs]) error {
		return w.AppendText(r.Args().Text)
	}, WithToolDescription("echoes text"))
}

func TestTypedToolSchemaReflection(t *testing.T) {
	tool := newEchoTool()
	schema := tool.Descriptor.InputSchema

	if schema.Type != "object" {
		t.Fatalf("schema type %q, want object", schema.Type)
	}
	if schema.AdditionalProperties {
		t.Fatal("additionalProperties should default to false")
	}
	prop, ok := schema.Properties["text"]
	if !ok {
		t.Fatalf("missing text property: %+v", schema.Properties)
	}
	if prop.Type != "string" {
		t.Fatalf("text property type %q, want string", prop.Type)
	}
	if prop.Description != "Text to echo" {
		t.Fatalf("description not reflected: %q", prop.Description)
	}

	foundRequired := false
	for _, r := range schema.Required {
		if r == "text" {
			foundRequired = true
		}
		if r == "repeat" {
			t.Fatal("omitempty field should not be required")
		}
	}
	if !foundRequired {
		t.Fatalf("text should be required: %v", schema.Required)
	}
}

func TestTypedToolStrictDecode(t *testing.T) {
	tc := NewToolsContainer(newEchoTool())

	res, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{
		Name:      "echo",
		Arguments: json.RawMessage(`{"text":"hi","bogus":true}`),
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("unknown argument field should produce an isError result")
	}
	if len(res.Content) == 0 || !strings.Contains(res.Content[0].Text, "invalid arguments") {
		t.Fatalf("unexpected content: %+v", res.Content)
	}
}

func TestCallToolUnknownName(t *testing.T) {
	tc := NewToolsContainer(newEchoTool())

	res, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "nope"})
	if err != nil {
		t.Fatalf("unknown tool must not be a Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("unknown tool should be an isError result")
	}
}

func TestToolResultNeverEmpty(t *testing.T) {
	// A handler that writes nothing must still produce one content block so
	// clients never receive an empty result.
	silent := NewTool("silent", func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	})
	tc := NewToolsContainer(silent)

	res, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "silent"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(res.Content))
	}
	if res.Content[0].Text != "(no output)" {
		t.Fatalf("got %q, want placeholder", res.Content[0].Text)
	}
	if res.IsError {
		t.Fatal("placeholder result should not be an error")
	}
}

func TestAnonymousArgsSchemaReflection(t *testing.T) {
	// Inline argument structs have no type name; reflection must still
	// produce the object schema instead of panicking.
	tool := NewTool("inline", func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[struct {
		Text string `json:"text"`
	}]) error {
		return w.AppendText(r.Args().Text)
	})
	schema := tool.Descriptor.InputSchema
	if schema.Type != "object" {
		t.Fatalf("schema type %q, want object", schema.Type)
	}
	prop, ok := schema.Properties["text"]
	if !ok || prop.Type != "string" {
		t.Fatalf("text property = %+v (%v)", prop, ok)
	}

	empty := NewTool("noargs", func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	})
	if empty.Descriptor.InputSchema.Type != "object" {
		t.Fatalf("empty-args schema = %+v", empty.Descriptor.InputSchema)
	}

	out := NewToolWithOutput("inlineout", func(ctx context.Context, _ *Session, w ToolResponseWriterTyped[struct {
		Count int `json:"count"`
	}], r *ToolRequest[struct{}]) error {
		return nil
	})
	if out.Descriptor.OutputSchema == nil || out.Descriptor.OutputSchema.Type != "object" {
		t.Fatalf("output schema = %+v", out.Descriptor.OutputSchema)
	}
	if _, ok := out.Descriptor.OutputSchema.Properties["count"]; !ok {
		t.Fatalf("output schema missing count: %+v", out.Descriptor.OutputSchema.Properties)
	}
}

type verOutput struct {
	Version string `json:"version"`
	Build   int    `json:"build"`
}

func TestTypedOutputToolStructuredContent(t *testing.T) {
	tool := NewToolWithOutput("ver", func(ctx context.Context, _ *Session, w ToolResponseWriterTyped[verOutput], r *ToolRequest[struct{}]) error {
		w.SetStructured(verOutput{Version: "1.2", Build: 7})
		return w.AppendText("1.2 (7)")
	})
	if tool.Descriptor.OutputSchema == nil {
		t.Fatal("output schema not reflected")
	}
	if _, ok := tool.Descriptor.OutputSchema.Properties["version"]; !ok {
		t.Fatalf("output schema missing version: %+v", tool.Descriptor.OutputSchema.Properties)
	}

	tc := NewToolsContainer(tool)
	res, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "ver"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.StructuredContent == nil {
		t.Fatal("structuredContent missing")
	}
	if res.StructuredContent["version"] != "1.2" {
		t.Fatalf("structuredContent = %+v", res.StructuredContent)
	}
}

type unencodablePayload struct{}

func (unencodablePayload) MarshalJSON() ([]byte, error) {
	return nil, errors.New("unencodable payload")
}

type unencodableOutput struct {
	Payload unencodablePayload `json:"payload"`
}

func TestTypedOutputEncodeFailureSurfaces(t *testing.T) {
	tool := NewToolWithOutput("bad", func(ctx context.Context, _ *Session, w ToolResponseWriterTyped[unencodableOutput], r *ToolRequest[struct{}]) error {
		w.SetStructured(unencodableOutput{})
		return w.AppendText("ok")
	})
	tc := NewToolsContainer(tool)

	_, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "bad"})
	if err == nil {
		t.Fatal("structured content that cannot be encoded must surface an error")
	}
	if !strings.Contains(err.Error(), "encode structured content") {
		t.Fatalf("err = %v", err)
	}
}

func TestToolsContainerMutation(t *testing.T) {
	tc := NewToolsContainer(newEchoTool())

	if added := tc.Add(context.Background(), newEchoTool()); added {
		t.Fatal("duplicate name should not be added")
	}
	if added := tc.Add(context.Background(), NewTool("other", func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	})); !added {
		t.Fatal("new tool should be added")
	}
	if !tc.Remove(context.Background(), "echo") {
		t.Fatal("echo should be removable")
	}
	if tc.Remove(context.Background(), "echo") {
		t.Fatal("second remove should report false")
	}

	snap := tc.Snapshot()
	if len(snap) != 1 || snap[0].Name != "other" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestListToolsPagination(t *testing.T) {
	var defs []StaticTool
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		defs = append(defs, NewTool(n, func(ctx context.Context, _ *Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
			return nil
		}))
	}
	tc := NewToolsContainer(defs...)
	tc.SetPageSize(2)

	var got []string
	var cursor *string
	for {
		page, err := tc.ListTools(context.Background(), nil, cursor)
		if err != nil {
			t.Fatalf("ListTools: %v", err)
		}
		for _, tool := range page.Items {
			got = append(got, tool.Name)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	if len(got) != len(names) {
		t.Fatalf("paged names = %v", got)
	}
	for i := range names {
		if got[i] != names[i] {
			t.Fatalf("paged names = %v", got)
		}
	}
}
