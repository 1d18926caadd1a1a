package mcp

// LoggingLevel represents structured log severity as defined by the protocol.
type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

// IsValidLoggingLevel reports whether the provided level is one of the
// protocol-defined syslog severities.
func IsValidLoggingLevel(level LoggingLevel) bool {
	switch level {
	case LoggingLevelDebug,
		LoggingLevelInfo,
		LoggingLevelNotice,
		LoggingLevelWarning,
		LoggingLevelError,
		LoggingLevelCritical,
		LoggingLevelAlert,
		LoggingLevelEmergency:
		return true
	default:
		return false
	}
}

// ClientCapabilities advertises client features during initialize.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling    *struct{} `json:"sampling,omitempty"`
	Elicitation *struct{} `json:"elicitation,omitempty"`
}

// ServerCapabilities advertises server features in the initialize result.
type ServerCapabilities struct {
	Logging   *struct{} `json:"logging,omitempty"`
	Resources *struct {
		ListChanged bool `json:"listChanged"`
		Subscribe   bool `json:"subscribe"`
	} `json:"resources,omitempty"`
	Tools *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"tools,omitempty"`
}

// ImplementationInfo identifies an implementation by name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// Content block type discriminators.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// ContentBlock is a typed content part of a tool result. Exactly one of the
// per-type field groups is populated depending on Type.
type ContentBlock struct {
	Type string `json:"type"`
	// For text content.
	Text string `json:"text,omitzero"`
	// For image content: base64 payload plus mime type.
	Data     string `json:"data,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
	// For embedded resources.
	Resource *ResourceContents `json:"resource,omitempty"`
}

// Tool describes a callable tool and its input schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
	// OutputSchema optionally declares the structure of structuredContent in
	// CallToolResult for this tool.
	OutputSchema *ToolOutputSchema `json:"outputSchema,omitempty"`
}

// ToolInputSchema is a JSON-schema-like description of tool input. The
// protocol constrains it to an object shape.
type ToolInputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties,omitzero"`
}

// ToolOutputSchema mirrors ToolInputSchema without the additionalProperties
// policy knob.
type ToolOutputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty is a simplified schema node used in tool schemas.
type SchemaProperty struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitzero"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Enum        []any                     `json:"enum,omitempty"`
}

// Resource represents an addressable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceTemplate describes a template for resource URIs.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceContents is the value of a resource read. Text resources populate
// Text; binary resources populate Blob with base64.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text,omitzero"`
	Blob     string `json:"blob,omitzero"`
}

// LatestProtocolVersion is the most recent protocol revision this server targets.
const LatestProtocolVersion = "2025-06-18"

// supportedProtocolVersions lists revisions the server will negotiate,
// newest first.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// IsSupportedProtocolVersion reports whether v is a protocol revision the
// server can speak.
func IsSupportedProtocolVersion(v string) bool {
	for _, s := range supportedProtocolVersions {
		if s == v {
			return true
		}
	}
	return false
}
