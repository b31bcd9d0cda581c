package zendesk

import (
	"encoding/base64"
	"encoding/json"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor is the resumable position of a paginated list stream.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Page is the next page to fetch, starting at 1.
	Page int `json:"page"`
}

// NewCursor creates a cursor positioned at the first page.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion, Page: 1}
}

// Next returns the cursor of the following page.
func (c *Cursor) Next() *Cursor {
	return &Cursor{Version: CursorVersion, Page: c.Page + 1}
}

// Encode serializes the cursor to a base64-encoded JSON string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64-encoded JSON string.
// An empty input yields a cursor at the first page.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}
	if cursor.Version != CursorVersion || cursor.Page < 1 {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}
