package singer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// StateDocument is the JSON value of a STATE message and of the --state file.
type StateDocument struct {
	DeviceUUID string                      `json:"device_uuid,omitempty"`
	Bookmarks  map[string]BookmarkDocument `json:"bookmarks"`
}

// BookmarkDocument is the persisted form of one stream bookmark.
type BookmarkDocument struct {
	DeviceUUID string `json:"device_uuid,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// NewStateDocument renders a domain state.
func NewStateDocument(state domain.State) StateDocument {
	doc := StateDocument{
		DeviceUUID: state.DeviceID.String(),
		Bookmarks:  make(map[string]BookmarkDocument, len(state.Bookmarks)),
	}
	for stream, b := range state.Bookmarks {
		bd := BookmarkDocument{
			DeviceUUID: b.DeviceID.String(),
			Cursor:     b.Cursor,
		}
		if !b.UpdatedAt.IsZero() {
			bd.UpdatedAt = b.UpdatedAt.UTC().Format(time.RFC3339Nano)
		}
		doc.Bookmarks[stream] = bd
	}
	return doc
}

// State converts the document to a domain state.
// Documents without a top-level device_uuid take it from the events
// bookmark, then from the first bookmark by stream name that carries one.
func (d StateDocument) State() domain.State {
	streams := make([]string, 0, len(d.Bookmarks))
	for stream := range d.Bookmarks {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	state := domain.State{
		DeviceID:  domain.DeviceID(d.DeviceUUID),
		Bookmarks: make(map[string]domain.Bookmark, len(d.Bookmarks)),
	}
	if state.DeviceID.IsZero() {
		state.DeviceID = domain.DeviceID(d.Bookmarks["events"].DeviceUUID)
	}
	for _, stream := range streams {
		if !state.DeviceID.IsZero() {
			break
		}
		state.DeviceID = domain.DeviceID(d.Bookmarks[stream].DeviceUUID)
	}

	for _, stream := range streams {
		bd := d.Bookmarks[stream]
		device := domain.DeviceID(bd.DeviceUUID)
		if device.IsZero() {
			device = state.DeviceID
		}
		b := domain.Bookmark{Stream: stream, DeviceID: device, Cursor: bd.Cursor}
		if t, err := time.Parse(time.RFC3339Nano, bd.UpdatedAt); err == nil {
			b.UpdatedAt = t
		}
		state.Bookmarks[stream] = b
	}
	return state
}

// ReadState decodes a state document. An empty input is an empty state.
func ReadState(r io.Reader) (domain.State, error) {
	var doc StateDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.State{Bookmarks: map[string]domain.Bookmark{}}, nil
		}
		return domain.State{}, fmt.Errorf("%w: state: %w", domain.ErrInvalidInput, err)
	}
	return doc.State(), nil
}

// LoadStateFile reads the state document at path.
func LoadStateFile(path string) (domain.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.State{}, fmt.Errorf("open state: %w", err)
	}
	defer f.Close()
	return ReadState(f)
}
