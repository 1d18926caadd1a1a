package service

import (
	"context"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

// ServerCapabilities is the surface the engine discovers at runtime. A false
// ok return suppresses the capability in the initialize advertisement.
type ServerCapabilities interface {
	// GetServerInfo returns implementation information surfaced in the
	// initialize result. It may be called multiple times and should be cheap.
	GetServerInfo(ctx context.Context, session *Session) (mcp.ImplementationInfo, error)

	// GetInstructions returns optional human-readable instructions included
	// in the initialize result. ok=false omits the field.
	GetInstructions(ctx context.Context, session *Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability if supported.
	GetToolsCapability(ctx context.Context, session *Session) (cap ToolsCapability, ok bool, err error)

	// GetResourcesCapability returns the resources capability if supported.
	GetResourcesCapability(ctx context.Context, session *Session) (cap ResourcesCapability, ok bool, err error)

	// GetLoggingCapability returns the logging capability if supported.
	GetLoggingCapability(ctx context.Context, session *Session) (cap LoggingCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface. Implementations must
// be safe for concurrent use.
type ToolsCapability interface {
	// ListTools returns a page of tools. A nil cursor requests the first page.
	ListTools(ctx context.Context, session *Session, cursor *string) (Page[mcp.Tool], error)

	// CallTool invokes a named tool. Domain failures should be reported via
	// an isError result rather than a Go error; errors are reserved for
	// internal or cancellation failures.
	CallTool(ctx context.Context, session *Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

	// GetListChangedCapability optionally exposes tool list-change
	// subscriptions; ok=false disables the listChanged advertisement.
	GetListChangedCapability(ctx context.Context, session *Session) (cap ToolListChangedCapability, ok bool, err error)
}

// NotifyToolsListChangedFunc is invoked when the tool list changes.
type NotifyToolsListChangedFunc func(ctx context.Context, session *Session)

// ToolListChangedCapability registers a callback for tool list changes.
// Register must respect ctx cancellation to stop delivering callbacks.
type ToolListChangedCapability interface {
	Register(ctx context.Context, session *Session, fn NotifyToolsListChangedFunc) (ok bool, err error)
}

// ResourcesCapability defines the server's resource surface.
type ResourcesCapability interface {
	// ListResources returns a page of resources.
	ListResources(ctx context.Context, session *Session, cursor *string) (Page[mcp.Resource], error)

	// ListResourceTemplates returns a page of resource templates.
	ListResourceTemplates(ctx context.Context, session *Session, cursor *string) (Page[mcp.ResourceTemplate], error)

	// ReadResource returns the contents for a resource URI. Unknown URIs
	// should produce a descriptive error.
	ReadResource(ctx context.Context, session *Session, uri string) ([]mcp.ResourceContents, error)

	// GetSubscriptionCapability optionally exposes per-URI subscriptions.
	GetSubscriptionCapability(ctx context.Context, session *Session) (cap ResourceSubscriptionCapability, ok bool, err error)

	// GetListChangedCapability optionally exposes list-change notifications.
	GetListChangedCapability(ctx context.Context, session *Session) (cap ResourceListChangedCapability, ok bool, err error)
}

// NotifyResourceUpdatedFunc is invoked when a subscribed resource changes.
type NotifyResourceUpdatedFunc func(ctx context.Context, uri string)

// CancelSubscription tears down an active subscription. It must be
// idempotent; cancellation is best-effort.
type CancelSubscription func(ctx context.Context) error

// ResourceSubscriptionCapability provides per-URI update subscriptions.
// Subscribe must be idempotent for duplicate (session, uri) pairs.
type ResourceSubscriptionCapability interface {
	Subscribe(ctx context.Context, session *Session, uri string, emit NotifyResourceUpdatedFunc) (CancelSubscription, error)
	Unsubscribe(ctx context.Context, session *Session, uri string) error
}

// NotifyResourceChangeFunc is invoked when the resource list changes.
type NotifyResourceChangeFunc func(ctx context.Context, session *Session, uri string)

// ResourceListChangedCapability registers a callback for resource list changes.
type ResourceListChangedCapability interface {
	Register(ctx context.Context, session *Session, fn NotifyResourceChangeFunc) (ok bool, err error)
}

// LoggingCapability lets the client adjust the server's logging level.
type LoggingCapability interface {
	SetLevel(ctx context.Context, session *Session, level mcp.LoggingLevel) error
}
