package domain

// State is the resumable state of a tap: the device identity and the
// bookmarks committed for it.
type State struct {
	DeviceID  DeviceID
	Bookmarks map[string]Bookmark
}

// Cursor returns the committed cursor for stream, or "" when absent.
func (s State) Cursor(stream string) string {
	return s.Bookmarks[stream].Cursor
}
