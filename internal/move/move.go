package move

// Shape kinds a move's options may carry
const (
	ShapeLine   = "line"
	ShapeCircle = "circle"
	ShapeRect   = "rect"
	ShapeImage  = "image"
)

// Drawing modes
const (
	ModeDraw   = "draw"
	ModeEraser = "eraser"
	ModeSelect = "select"
)

// RGBA color as the client transmits it
type RGBA struct {
	R float64 `json:"r" validate:"min=0,max=255"`
	G float64 `json:"g" validate:"min=0,max=255"`
	B float64 `json:"b" validate:"min=0,max=255"`
	A float64 `json:"a" validate:"min=0,max=1"`
}

// Selection is the active selection rectangle, if any
type Selection struct {
	X      float64 `json:"x" validate:"min=-1000000,max=1000000"`
	Y      float64 `json:"y" validate:"min=-1000000,max=1000000"`
	Width  float64 `json:"width" validate:"min=-1000000,max=1000000"`
	Height float64 `json:"height" validate:"min=-1000000,max=1000000"`
}

// Options carries the shared drawing settings for a move
type Options struct {
	LineWidth float64    `json:"lineWidth" validate:"required,gt=0,max=1000"`
	LineColor RGBA       `json:"lineColor"`
	FillColor RGBA       `json:"fillColor"`
	Shape     string     `json:"shape" validate:"required,oneof=line circle rect image"`
	Mode      string     `json:"mode" validate:"required,oneof=draw eraser select"`
	Selection *Selection `json:"selection"`
}

// Circle payload: center plus x/y radii (ellipses allowed)
type Circle struct {
	CX      float64 `json:"cX" validate:"min=-1000000,max=1000000"`
	CY      float64 `json:"cY" validate:"min=-1000000,max=1000000"`
	RadiusX float64 `json:"radiusX" validate:"min=0,max=1000000"`
	RadiusY float64 `json:"radiusY" validate:"min=0,max=1000000"`
}

// Rect payload
type Rect struct {
	Width  float64 `json:"width" validate:"min=-1000000,max=1000000"`
	Height float64 `json:"height" validate:"min=-1000000,max=1000000"`
}

// Image payload, base64-encoded by the client
type Image struct {
	Base64 string `json:"base64" validate:"required"`
}

// Move is one atomic drawing operation. At most one of Path, Circle, Rect
// or Img is populated; a move with none is metadata-only (option changes,
// selections). Immutable once recorded; ID targets undo.
type Move struct {
	Path   [][2]float64 `json:"path,omitempty"`
	Circle *Circle      `json:"circle,omitempty"`
	Rect   *Rect        `json:"rect,omitempty"`
	Img    *Image       `json:"img,omitempty"`

	Options Options `json:"options"`

	Timestamp int64  `json:"timestamp,omitempty"`
	ID        string `json:"id,omitempty"`
}

// VariantCount: how many payload variants are populated
func (m *Move) VariantCount() int {
	n := 0
	if len(m.Path) > 0 {
		n++
	}
	if m.Circle != nil {
		n++
	}
	if m.Rect != nil {
		n++
	}
	if m.Img != nil {
		n++
	}
	return n
}
