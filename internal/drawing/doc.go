// Package drawing models the CAD host collaborator and the read-only entity
// snapshot the border heuristics run against.
//
// # Host Contract
//
// The host owns the drawing. This package never parses a CAD format; it only
// talks to a Host through three small interfaces:
//
//   - Host opens a drawing document by path.
//   - Document enumerates model-space entities, deletes by handle, re-counts,
//     saves and closes. One Document is one open drawing in one host session.
//   - EntityRef is a live view of one entity. Every accessor may fail per
//     entity, and callers must treat failure as "property unavailable".
//
// Two hosts ship with the package: MemoryHost (used by tests and by callers
// that already hold entity records) and JSONHost, which opens the JSON entity
// dumps written by the CAD-side exporter and validates them against an
// embedded JSON Schema before use.
//
// # Snapshots
//
// Take materializes a Document into a Snapshot exactly once per file, before
// any detector runs. Accessor failures are folded into optional fields (nil
// pointers, empty strings, CategoryOther) so that no detector ever has to
// handle a host error. A Snapshot is never refreshed while the pipeline for
// that file is running; deletions go through Document.Delete afterwards.
//
// # Thread Safety
//
// Snapshots are immutable after Take returns and can be shared by concurrent
// detectors. Documents and hosts are single-session resources and must be used
// from one goroutine at a time.
package drawing
