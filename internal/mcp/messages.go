package mcp

import (
	"encoding/json"

	"github.com/droidmcp/droidmcp/internal/jsonrpc"
)

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// Method names and notifications spoken by this server.
const (
	// Initialization
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"

	// Tools
	ToolsListMethod                    Method = "tools/list"
	ToolsCallMethod                    Method = "tools/call"
	ToolsListChangedNotificationMethod Method = "notifications/tools/list_changed"

	// Resources
	ResourcesListMethod                    Method = "resources/list"
	ResourcesReadMethod                    Method = "resources/read"
	ResourcesTemplatesListMethod           Method = "resources/templates/list"
	ResourcesSubscribeMethod               Method = "resources/subscribe"
	ResourcesUnsubscribeMethod             Method = "resources/unsubscribe"
	ResourcesListChangedNotificationMethod Method = "notifications/resources/list_changed"
	ResourcesUpdatedNotificationMethod     Method = "notifications/resources/updated"

	// Logging
	LoggingSetLevelMethod            Method = "logging/setLevel"
	LoggingMessageNotificationMethod Method = "notifications/message"

	// General
	PingMethod                  Method = "ping"
	CancelledNotificationMethod Method = "notifications/cancelled"
	ProgressNotificationMethod  Method = "notifications/progress"
)

// PaginatedRequest carries a cursor for paginated list requests.
type PaginatedRequest struct {
	Cursor string `json:"cursor,omitzero"`
}

// PaginatedResult carries a cursor for continuing pagination.
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitzero"`
}

// BaseMetadata carries optional implementation-defined metadata under _meta.
type BaseMetadata struct {
	Meta map[string]any `json:"_meta,omitempty"`
}

// ProgressToken correlates progress notifications with the request that
// carried it. It may be a string or a number.
type ProgressToken any

// RequestMeta is the _meta block a client may attach to request params.
type RequestMeta struct {
	ProgressToken ProgressToken `json:"progressToken,omitempty"`
}

// CancelledNotification informs the peer that a request was canceled. The
// requestId carries whatever id shape the client used on the request, so it
// decodes as string-or-number like any JSON-RPC id.
type CancelledNotification struct {
	RequestID jsonrpc.RequestID `json:"requestId"`
	Reason    string            `json:"reason,omitzero"`
}

// ProgressNotificationParams conveys progress of a long-running operation.
type ProgressNotificationParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         float64       `json:"total,omitzero"`
}

// InitializeRequest starts the MCP initialization handshake.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns negotiated capabilities and server info.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitzero"`
	BaseMetadata
}

// ListToolsRequest requests the set of available tools.
type ListToolsRequest struct {
	PaginatedRequest
}

// ListToolsResult returns a page of tools.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
	PaginatedResult
	BaseMetadata
}

// CallToolRequestReceived is the server-received form of a tool call: the
// arguments stay raw until the tool's typed decoder runs.
type CallToolRequestReceived struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      *RequestMeta    `json:"_meta,omitempty"`
}

// CallToolResult represents a tool invocation result.
type CallToolResult struct {
	Content []ContentBlock `json:"content,omitempty"`
	IsError bool           `json:"isError,omitzero"`
	// StructuredContent contains a typed object conforming to the tool's
	// OutputSchema when provided.
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	BaseMetadata
}

// ListResourcesRequest requests a paginated list of resources.
type ListResourcesRequest struct {
	PaginatedRequest
}

// ListResourcesResult returns a page of resources.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
	PaginatedResult
	BaseMetadata
}

// ListResourceTemplatesRequest requests resource templates.
type ListResourceTemplatesRequest struct {
	PaginatedRequest
}

// ListResourceTemplatesResult returns resource templates.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	PaginatedResult
	BaseMetadata
}

// ReadResourceRequest requests the contents of a resource by URI.
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResult returns resource contents.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
	BaseMetadata
}

// SubscribeRequest subscribes to updates for the given URI.
type SubscribeRequest struct {
	URI string `json:"uri"`
}

// UnsubscribeRequest ends a subscription for the given URI.
type UnsubscribeRequest struct {
	URI string `json:"uri"`
}

// ResourceUpdatedNotification indicates a resource's content changed.
type ResourceUpdatedNotification struct {
	URI string `json:"uri"`
}

// SetLevelRequest sets the server logging level.
type SetLevelRequest struct {
	Level LoggingLevel `json:"level"`
}

// LoggingMessageNotification conveys a structured log message to the client.
type LoggingMessageNotification struct {
	Level  LoggingLevel `json:"level"`
	Data   any          `json:"data"`
	Logger string       `json:"logger,omitzero"`
}

// EmptyResult is returned for operations that do not return data.
type EmptyResult struct {
	BaseMetadata
}
