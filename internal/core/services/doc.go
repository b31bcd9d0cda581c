// Package services implements the driving port interfaces.
// Services contain the core extraction logic and orchestrate
// calls to driven ports (adapters).
//
// The Driver pages through a change feed, the Emitter conforms records
// and checkpoints cursors, DeviceIdentity resolves the device identifier,
// and TapService ties them together across streams.
package services
