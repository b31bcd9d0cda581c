// Package connectors provides implementations of the driven.Connector
// interface. Each connector knows how to page through the streams of one
// upstream API and acknowledge delivered pages.
//
// The zendesk subpackage is the only connector; cmd/tap-zendesk-sell wires
// it into the tap service at startup.
package connectors
