// Package prune removes everything that lies outside a detected drawing
// frame.
//
// Pruning runs in two steps. Plan classifies a snapshot against the winning
// candidate without touching the document. Apply then issues one delete
// request per planned handle and records per-entity failures, so a single
// stubborn entity never aborts the rest of the pass.
//
// Three rules decide whether an entity stays:
//
//   - the entities that defined the frame (Candidate.Handles) always stay,
//     even when their own boxes poke past the frame
//   - an entity whose bounding box could not be read stays
//   - anything else stays only if its box lies within the frame grown by
//     Tolerance on every side
package prune
