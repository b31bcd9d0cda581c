package singer

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.RecordSink = (*Writer)(nil)

// Message types.
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

// Message is one Singer protocol line.
type Message struct {
	Type               string         `json:"type"`
	Stream             string         `json:"stream,omitempty"`
	Schema             *domain.Schema `json:"schema,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
	Record             map[string]any `json:"record,omitempty"`
	TimeExtracted      string         `json:"time_extracted,omitempty"`
	Value              any            `json:"value,omitempty"`
}

// Writer writes Singer messages as JSON lines. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewWriter creates a Writer on w, normally os.Stdout.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteSchema emits the SCHEMA message of stream.
func (w *Writer) WriteSchema(stream domain.Stream) error {
	keys := stream.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	return w.write(&schemaMessage{
		Type:          TypeSchema,
		Stream:        stream.Name,
		Schema:        stream.Schema,
		KeyProperties: keys,
	})
}

// WriteRecord emits one RECORD message.
func (w *Writer) WriteRecord(stream string, record map[string]any, extractedAt time.Time) error {
	msg := &Message{
		Type:   TypeRecord,
		Stream: stream,
		Record: record,
	}
	if record == nil {
		msg.Record = map[string]any{}
	}
	if !extractedAt.IsZero() {
		msg.TimeExtracted = extractedAt.UTC().Format(time.RFC3339Nano)
	}
	return w.write(msg)
}

// WriteState emits a STATE message holding the state document.
func (w *Writer) WriteState(state domain.State) error {
	return w.write(&Message{Type: TypeState, Value: NewStateDocument(state)})
}

// Close stops further writes. It does not close the underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *Writer) write(msg any) error {
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return domain.ErrTapClosed
	}
	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// schemaMessage always carries key_properties, even when empty.
type schemaMessage struct {
	Type          string         `json:"type"`
	Stream        string         `json:"stream"`
	Schema        *domain.Schema `json:"schema"`
	KeyProperties []string       `json:"key_properties"`
}
