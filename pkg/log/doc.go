// Package log records block catalog events.
//
// Every time the catalog loads a metadata document it emits one Event per
// block: Loaded when a descriptor is accepted, Rejected when a document fails
// to load, Warning for tolerated problems and Removed when a block
// disappears on reload. Operational logging stays with log/slog; this
// package gives a machine-readable trail of what the catalog accepted.
//
// # Basic Usage
//
//	// Console output through slog
//	cat := catalog.New(catalog.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// Persistent trail
//	fl, _ := log.NewFileLogger("/var/log/blockspec/catalog.blog")
//	cat := catalog.New(catalog.WithLogger(log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fl,
//	)))
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys. Use
// NewReader or NewFilteredReader to read them back.
package log
