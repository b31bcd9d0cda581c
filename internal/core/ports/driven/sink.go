package driven

import (
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// RecordSink receives the tap's output.
// Implementations serialise writes so independent streams can share one sink.
type RecordSink interface {
	// WriteSchema declares a stream before its first record.
	WriteSchema(stream domain.Stream) error

	// WriteRecord emits one conformed record.
	WriteRecord(stream string, record map[string]any, extractedAt time.Time) error

	// WriteState emits a snapshot of the resumable state.
	WriteState(state domain.State) error
}
