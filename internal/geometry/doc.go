// Package geometry provides the small set of planar primitives the border
// heuristics are built from.
//
// # Coordinate System
//
// All coordinates are in drawing units, exactly as reported by the CAD host:
//   - X increases rightward
//   - Y increases upward (model space convention, not image convention)
//   - Bounds are closed intervals: both Min and Max lie on the box
//
// No unit conversion is ever performed. A drawing authored in millimetres and
// one authored in inches are measured against the same absolute thresholds,
// which is why the detectors use generous size limits and aspect ratios
// rather than exact paper sizes.
//
// # Degenerate Boxes
//
// A box with zero width or height is valid as a value (a horizontal line has
// one) but has zero area, and AspectRatio reports +Inf for it. Callers that
// need a usable frame check Area() > 0 first.
package geometry
