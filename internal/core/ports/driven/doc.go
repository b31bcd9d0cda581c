// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Declares streams and hands out their change feeds
//   - ChangeFeed: Fetches pages of one stream and acknowledges delivered pages
//   - BookmarkStore: Per-stream cursor persistence
//   - DeviceStore: Device identity persistence
//   - RecordSink: Schema, record and state output
//   - ConfigStore: Tap configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Metrics: Sync counters. Without it nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
