// Package mcp contains protocol data types and constants for the Model
// Context Protocol subset this server speaks: the initialize lifecycle,
// tools, resources (with subscriptions and list-changed notifications),
// logging, ping, and the cancelled/progress notifications.
//
// The package is intentionally free of transport logic. The stdio transport
// imports these types but implements its own framing; the engine constructs
// responses from them and hands them to the JSON-RPC layer for
// serialization.
//
// Method and notification names are enumerated as Method constants (e.g.
// ToolsListMethod) so there is a single point of truth for wire strings.
// LatestProtocolVersion reflects the newest protocol revision the server
// targets; IsSupportedProtocolVersion gates negotiation during initialize.
package mcp
