// Package service exposes the composable building blocks the engine serves:
// capability interfaces (tools, resources, logging), containers that
// implement them, and typed tool constructors that reflect JSON schemas from
// Go structs.
//
// Conventions:
//   - Capability discovery methods return (cap, ok, err). A false ok means
//     the capability is absent and is not advertised; err is reserved for
//     internal failures while determining support.
//   - All methods accept a context.Context and must honor cancellation.
//   - Pagination uses Page[T]; a nil cursor requests the first page.
package service
