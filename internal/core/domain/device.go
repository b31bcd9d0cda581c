package domain

// DeviceID identifies one logical subscriber of the upstream event stream.
// It is opaque to the tap and never changes once persisted.
type DeviceID string

// String returns the identifier as sent upstream.
func (d DeviceID) String() string {
	return string(d)
}

// IsZero reports whether no identifier has been assigned.
func (d DeviceID) IsZero() bool {
	return d == ""
}

// Device is the resolved identity for one tap invocation.
type Device struct {
	// ID is the identifier sent with every sync request.
	ID DeviceID

	// Fresh is true when ID was generated during this invocation.
	// A fresh identity has no server-side history, so every stored cursor is void.
	Fresh bool
}
