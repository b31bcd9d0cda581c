package domain

// ReplicationMethod says how a stream's bookmark behaves between runs.
type ReplicationMethod string

const (
	// ReplicationFullTable re-reads the whole stream every run. The bookmark
	// only lets an interrupted run resume and is cleared on completion.
	ReplicationFullTable ReplicationMethod = "FULL_TABLE"

	// ReplicationIncremental keeps the bookmark between runs.
	ReplicationIncremental ReplicationMethod = "INCREMENTAL"
)

// Stream describes one extractable stream.
type Stream struct {
	// Name is the stream identifier used in messages and state.
	Name string

	// KeyProperties are the fields that identify a record.
	KeyProperties []string

	// Replication is how the stream's cursor is kept.
	Replication ReplicationMethod

	// Parent names the parent stream for child streams, empty otherwise.
	Parent string

	// Schema is the declared record shape.
	Schema *Schema
}

// IsChild reports whether the stream is read once per parent record.
func (s *Stream) IsChild() bool {
	return s.Parent != ""
}
