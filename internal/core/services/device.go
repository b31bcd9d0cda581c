package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// DeviceIdentity resolves the device identifier for a run.
type DeviceIdentity struct {
	store driven.DeviceStore
	newID func() string
}

// NewDeviceIdentity creates a resolver. store may be nil, in which case
// nothing persisted is consulted.
func NewDeviceIdentity(store driven.DeviceStore) *DeviceIdentity {
	return &DeviceIdentity{
		store: store,
		newID: uuid.NewString,
	}
}

// GetOrCreate returns the configured identifier unchanged when set.
// Otherwise it reuses the persisted identifier, and failing that generates a
// random UUID which is reported as fresh. Persisting the result is the
// caller's job.
func (d *DeviceIdentity) GetOrCreate(ctx context.Context, configured domain.DeviceID) (domain.Device, error) {
	if !configured.IsZero() {
		return domain.Device{ID: configured}, nil
	}

	if d.store != nil {
		id, err := d.store.Device(ctx)
		switch {
		case err == nil && !id.IsZero():
			return domain.Device{ID: id}, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.Device{}, fmt.Errorf("load device identity: %w", err)
		}
	}

	return domain.Device{ID: domain.DeviceID(d.newID()), Fresh: true}, nil
}
