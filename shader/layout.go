package shader

import (
	"errors"
	"fmt"
)

// float32 size in bytes
const floatBytes = 4

// Attribute names the vertex shaders must declare.
const (
	PositionAttribute = "vertex_position"
	ColorAttribute    = "color"
)

// AttributeSpec declares one per-vertex attribute of an interleaved schema.
type AttributeSpec struct {
	Name       string `yaml:"name"`
	Components int    `yaml:"components"`
}

// Attribute is a resolved entry of a Layout.
type Attribute struct {
	Name       string
	Components int
	Offset     int // byte offset inside one vertex
}

// Layout is the interleaved vertex layout derived from a Schema.
type Layout struct {
	Attributes []Attribute
	Stride     int // bytes per vertex
}

// FloatsPerVertex returns the number of float32 values that make up one vertex.
func (l Layout) FloatsPerVertex() int {
	return l.Stride / floatBytes
}

// Schema is static vertex configuration: attribute order, interleaved vertex data and
// an optional index list. A nil Indices draws the vertices directly.
type Schema struct {
	Name       string
	Attributes []AttributeSpec
	Vertices   []float32
	Indices    []uint16
}

var (
	ErrEmptySchema     = errors.New("schema has no attributes")
	ErrBadComponents   = errors.New("attribute component count must be between 1 and 4")
	ErrRaggedVertices  = errors.New("vertex data is not a whole number of vertices")
	ErrIndexOutOfRange = errors.New("index refers past the last vertex")
)

// Layout computes offsets and stride. Offsets follow declaration order.
func (s Schema) Layout() (Layout, error) {
	if len(s.Attributes) == 0 {
		return Layout{}, ErrEmptySchema
	}
	l := Layout{Attributes: make([]Attribute, 0, len(s.Attributes))}
	offset := 0
	for _, a := range s.Attributes {
		if a.Components < 1 || a.Components > 4 {
			return Layout{}, fmt.Errorf("attribute %q: %w", a.Name, ErrBadComponents)
		}
		l.Attributes = append(l.Attributes, Attribute{Name: a.Name, Components: a.Components, Offset: offset})
		offset += a.Components * floatBytes
	}
	l.Stride = offset
	return l, nil
}

// Validate checks that vertex and index data agree with the attribute layout.
func (s Schema) Validate() error {
	l, err := s.Layout()
	if err != nil {
		return err
	}
	per := l.FloatsPerVertex()
	if len(s.Vertices) == 0 || len(s.Vertices)%per != 0 {
		return fmt.Errorf("%d floats with %d per vertex: %w", len(s.Vertices), per, ErrRaggedVertices)
	}
	n := s.VertexCount()
	for i, idx := range s.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d is %d, have %d vertices: %w", i, idx, n, ErrIndexOutOfRange)
		}
	}
	return nil
}

// VertexCount returns the number of vertices in the schema's vertex data.
func (s Schema) VertexCount() int {
	per := 0
	for _, a := range s.Attributes {
		per += a.Components
	}
	if per == 0 {
		return 0
	}
	return len(s.Vertices) / per
}

// Indexed reports whether the schema is drawn through an index buffer.
func (s Schema) Indexed() bool { return len(s.Indices) > 0 }

// DrawCount is the count passed to the single draw call: indices when indexed,
// vertices otherwise.
func (s Schema) DrawCount() int {
	if s.Indexed() {
		return len(s.Indices)
	}
	return s.VertexCount()
}

// IndexedQuad is a quad of four colored vertices (position xyz + color rgba) drawn as two
// triangles through six indices.
var IndexedQuad = Schema{
	Name: "indexed",
	Attributes: []AttributeSpec{
		{Name: PositionAttribute, Components: 3},
		{Name: ColorAttribute, Components: 4},
	},
	Vertices: []float32{
		-0.5, 0.5, 0.0,
		1.0, 0.0, 0.0, 1.0,
		-0.5, -0.5, 0.0,
		0.0, 1.0, 0.0, 1.0,
		0.5, 0.5, 0.0,
		0.0, 0.0, 1.0, 1.0,
		0.5, -0.5, 0.0,
		0.0, 0.0, 0.0, 1.0,
	},
	Indices: []uint16{
		0, 1, 2,
		1, 3, 2,
	},
}

// ArrayQuad is the same quad spelled out as six vertices (position xyz + color rgb) and
// drawn without an index buffer.
var ArrayQuad = Schema{
	Name: "arrays",
	Attributes: []AttributeSpec{
		{Name: PositionAttribute, Components: 3},
		{Name: ColorAttribute, Components: 3},
	},
	Vertices: []float32{
		-0.5, 0.5, 0.0, 1.0, 0.0, 0.0,
		-0.5, -0.5, 0.0, 0.0, 1.0, 0.0,
		0.5, 0.5, 0.0, 0.0, 0.0, 1.0,
		-0.5, -0.5, 0.0, 0.0, 1.0, 0.0,
		0.5, -0.5, 0.0, 0.0, 0.0, 0.0,
		0.5, 0.5, 0.0, 0.0, 0.0, 1.0,
	},
}

// SchemaByName returns one of the built-in schemas.
func SchemaByName(name string) (Schema, error) {
	switch name {
	case "", IndexedQuad.Name:
		return IndexedQuad, nil
	case ArrayQuad.Name:
		return ArrayQuad, nil
	default:
		return Schema{}, fmt.Errorf("unknown vertex schema %q", name)
	}
}
