// Package preview renders a cleaning pass as a raster image.
//
// A preview draws every entity of a snapshot in drawing coordinates (Y up)
// scaled onto a canvas: kept entities in one colour, entities the pruner
// removes in another, and the detected frame as a thick outline in a colour
// chosen per detector kind. A caption names the detector and the frame size.
//
// Entities are drawn as their bounding box outline, except lines which are
// drawn as segments. Entities without a box are not drawn.
//
// Previews are written as PNG files next to cleaned drawings and shrunk to
// thumbnails for the HTML report.
package preview
