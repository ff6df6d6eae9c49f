package shader

import (
	_ "embed"
	"fmt"

	"github.com/richinsley/goshaderquad/graphics"
)

// Resource names of the two shader sources a pipeline needs.
const (
	VertexName   = "vertex"
	FragmentName = "fragment"
)

// Locations used by the browser build of the quad demo, relative to the page.
const (
	WebVertexLocation   = "../shader/vertex_shader.glsl"
	WebFragmentLocation = "../shader/fragment_shader.glsl"
)

// Locations of the shader sources shipped in this directory.
const (
	LocalVertexLocation   = "shader/vertex.glsl"
	LocalFragmentLocation = "shader/fragment.glsl"
)

// ────────────────────────────────── Default sources ──────────────────────────────────

//go:embed vertex.glsl
var vertexSource string

//go:embed fragment.glsl
var fragmentSource string

// DefaultVertexSource returns the bundled WebGL2 vertex shader. It declares the
// vertex_position and color attributes and forwards the color to the fragment stage.
func DefaultVertexSource() string { return vertexSource }

// DefaultFragmentSource returns the bundled WebGL2 fragment shader.
func DefaultFragmentSource() string { return fragmentSource }

// ─────────────────────────────────── Shader units ────────────────────────────────────

// Kind identifies the pipeline stage a shader unit belongs to.
type Kind int

const (
	Vertex Kind = iota
	Fragment
)

func (k Kind) String() string {
	switch k {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ShaderType maps the kind to the device shader type.
func (k Kind) ShaderType() graphics.ShaderType {
	if k == Fragment {
		return graphics.FragmentShader
	}
	return graphics.VertexShader
}

// ResourceName returns the bundle key that holds this kind's source.
func (k Kind) ResourceName() string {
	if k == Fragment {
		return FragmentName
	}
	return VertexName
}

// Unit is one shader source and its compile outcome. It is created once its source is
// available and updated in place by the compile stage.
type Unit struct {
	Kind     Kind
	Source   string
	Compiled bool
	Log      string // compiler diagnostics, set when compilation fails
	Handle   uint32
}

// NewUnit creates an uncompiled unit for the given source.
func NewUnit(kind Kind, source string) *Unit {
	return &Unit{Kind: kind, Source: source}
}
