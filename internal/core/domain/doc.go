// Package domain defines the core entities of the Zendesk Sell tap.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DeviceID: the identity scoping the upstream event stream
//   - Bookmark: a persisted cursor for one (stream, device) pair
//   - SyncPage: one page of change records plus its continuation
//   - ChangeRecord: a single upstream row or mutation event
//   - Stream and Schema: what a stream is called and what shape it emits
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
