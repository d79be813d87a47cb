package value

// VectorRow is one instance row of a vector table: a single path with its
// instance transform.
type VectorRow struct {
	// Points are the anchor points of the path in local space.
	Points []DVec2 `json:"points"`

	// Closed marks the path as a closed loop.
	Closed bool `json:"closed"`

	// Transform places the instance in parent space.
	Transform DAffine2 `json:"transform"`

	// Fill and Stroke style the instance. A zero-alpha fill is unfilled.
	Fill   Color   `json:"fill"`
	Stroke Color   `json:"stroke"`
	Weight float64 `json:"weight"`
}

// VectorTable holds vector geometry as instance rows. Tables are immutable
// once placed inside a TaggedValue; derive modified copies instead of
// mutating in place.
type VectorTable struct {
	Rows []VectorRow `json:"rows"`
}

// RasterTable holds raster data as an RGBA8 pixel grid. The pixel slice is
// shared between clones and must not be written after construction.
type RasterTable struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels []byte `json:"pixels"`
}

// GraphicGroup is an ordered collection of graphical elements composited
// bottom to top. Elements are themselves tagged values: vector tables,
// raster tables, artboards, or nested groups.
type GraphicGroup struct {
	Elements  []TaggedValue `json:"elements"`
	Transform DAffine2      `json:"transform"`
	Blend     BlendMode     `json:"blend"`
	Opacity   float64       `json:"opacity"`
}

// Artboard is a named, positioned canvas region wrapping its content.
type Artboard struct {
	Label      string       `json:"label"`
	Location   DVec2        `json:"location"`
	Dimensions DVec2        `json:"dimensions"`
	Background Color        `json:"background"`
	Clip       bool         `json:"clip"`
	Content    GraphicGroup `json:"content"`
}
