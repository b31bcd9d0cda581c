package domain

import "time"

// Bookmark tracks how far one stream has been read for one device.
type Bookmark struct {
	// Stream is the stream name the cursor belongs to.
	Stream string

	// DeviceID scopes the cursor to one event-stream subscriber.
	DeviceID DeviceID

	// Cursor is the opaque continuation token returned by the last committed page.
	Cursor string

	// UpdatedAt is when the cursor was last committed.
	UpdatedAt time.Time
}

// IsEmpty reports whether the bookmark carries no cursor.
func (b *Bookmark) IsEmpty() bool {
	return b == nil || b.Cursor == ""
}
