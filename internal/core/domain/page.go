package domain

// ChangeType represents the kind of upstream mutation a record describes.
type ChangeType int

const (
	// ChangeSnapshot is a full row read from a list endpoint.
	ChangeSnapshot ChangeType = iota

	// ChangeCreated indicates a new resource.
	ChangeCreated

	// ChangeUpdated indicates a modified resource.
	ChangeUpdated

	// ChangeDeleted indicates a removed resource.
	ChangeDeleted
)

// String returns the lower-case name used in logs and event payloads.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "snapshot"
	}
}

// ParseChangeType maps an upstream event type to a ChangeType.
// Unknown values map to ChangeSnapshot.
func ParseChangeType(s string) ChangeType {
	switch s {
	case "created":
		return ChangeCreated
	case "updated":
		return ChangeUpdated
	case "deleted":
		return ChangeDeleted
	default:
		return ChangeSnapshot
	}
}

// ChangeRecord is one upstream row or mutation event.
type ChangeRecord struct {
	// Type is the kind of change.
	Type ChangeType

	// Resource is the upstream resource type (e.g. "contact", "deal").
	Resource string

	// Fields holds the decoded payload, keyed by field name.
	Fields map[string]any

	// AckKey acknowledges the record upstream once it has been delivered.
	// Empty for sources without acknowledgement.
	AckKey string
}

// SyncPage is the result of one fetch.
type SyncPage struct {
	// Records are the change records in upstream order.
	Records []ChangeRecord

	// NextCursor is the position after this page.
	NextCursor string

	// More is the explicit continuation flag. An empty page may still have More set.
	More bool
}

// AckKeys returns the acknowledgement keys of the page's records in order.
func (p *SyncPage) AckKeys() []string {
	keys := make([]string, 0, len(p.Records))
	for _, r := range p.Records {
		if r.AckKey != "" {
			keys = append(keys, r.AckKey)
		}
	}
	return keys
}

// Partition carries parent keys for a child stream fetch (e.g. deal_id).
type Partition map[string]any

// SyncRequest is the input of one fetch.
type SyncRequest struct {
	// Stream is the stream being read.
	Stream string

	// Device is the subscriber identity sent upstream.
	Device DeviceID

	// Cursor is the last committed position, empty on the first run.
	Cursor string

	// Partition is set for child streams.
	Partition Partition
}
