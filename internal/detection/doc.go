// Package detection infers the drawing frame of a CAD drawing from a
// read-only entity snapshot.
//
// Legacy drawings rarely put their border on a dedicated layer, so no single
// query finds it reliably. Instead this package runs several independent
// heuristics and arbitrates between their proposals.
//
// # Detectors
//
// Each detector is a pure function of a *drawing.Snapshot that returns zero or
// one Candidate:
//
//   - Block: the largest block instance whose name mentions BORDER, FRAME or
//     TITLE (size > 100 units on both axes, aspect < 5)
//   - Layer: the union box of every entity on a border-ish layer (BORDER or
//     FRAME in the name, DEFPOINTS, or a "LEVEL " prefix left by DGN
//     conversion), size >= 100 on both axes, aspect < 5
//   - Face: the largest face entity with aspect < 3
//   - Polyline: the largest polyline, open or closed, with aspect < 10
//   - Lines: four long lines forming a rectangle (see below)
//
// Detectors skip any entity whose required properties the host could not
// supply. They never return errors.
//
// # Arbitration
//
// FindBorder collects the candidates of the first four detectors in that
// fixed priority order and stable-sorts them by area, largest first. Equal
// areas therefore resolve to the earlier detector. Only when all four come up
// empty does the line-rectangle detector run, as the sole fallback.
//
// # Line Rectangles
//
// Lines are classified as horizontal when |dx| > 2|dy| and vertical when
// |dy| > 2|dx|; anything steeper or shallower is ignored. The 30 longest of
// each class are searched for two horizontals and two verticals whose
// endpoints pairwise meet within a tolerance, trying 50, 20, 10, 5, 2 and 1
// units in turn. If nothing connects, the two longest lines of each class are
// used as-is.
//
// The resulting bounds come from the midpoints of the chosen lines (bottom
// and top Y, left and right X), not from their intersections. This keeps the
// heuristic's historic behavior: moving to true corners would change which
// entities get pruned near the frame.
//
// # Determinism
//
// For a fixed snapshot the result is fully deterministic. Sorts are stable
// and the rectangle search enumerates in a fixed nested order. Running the
// detectors concurrently (Options.Parallel) does not change the outcome
// because arbitration orders by detector priority, not completion order.
package detection
