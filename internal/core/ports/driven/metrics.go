package driven

import "time"

// Metrics records sync progress. Implementations must be safe for concurrent use.
type Metrics interface {
	// PageFetched counts one page read from stream.
	PageFetched(stream string, records int)

	// RecordsEmitted counts records handed to the sink.
	RecordsEmitted(stream string, n int)

	// FetchRetried counts a retried fetch after a transient failure.
	FetchRetried(stream string)

	// StreamFinished records a stream's outcome and duration.
	StreamFinished(stream string, err error, elapsed time.Duration)
}
