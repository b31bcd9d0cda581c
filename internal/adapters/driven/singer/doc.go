// Package singer implements the Singer protocol surface of the tap.
//
// The Writer emits SCHEMA, RECORD and STATE messages as JSON lines on
// stdout and implements [driven.RecordSink]. State documents are read back
// from the --state file, catalogs are rendered for --discover and parsed
// from --catalog, and About describes the tap for --about.
//
// Writes are serialised so every stream of a parallel sync can share one
// Writer without interleaving lines.
package singer
