package graphics

// ShaderType selects the stage a shader object is created for.
type ShaderType uint32

const (
	VertexShader ShaderType = iota + 1
	FragmentShader
)

func (t ShaderType) String() string {
	switch t {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferTarget is the binding point a buffer object is bound to.
type BufferTarget uint32

const (
	ArrayBuffer BufferTarget = iota + 1
	ElementArrayBuffer
)

// Usage is the data store usage hint given when uploading a buffer.
type Usage uint32

const (
	StaticDraw Usage = iota + 1
)

// Primitive is the primitive assembly mode of a draw call.
type Primitive uint32

const (
	Triangles Primitive = iota + 1
)

// Device is the GPU capability used by the renderer. Handles are plain object names;
// zero means the object could not be created. Locations are -1 when a name is unknown.
type Device interface {
	CreateShader(t ShaderType) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	AttribLocation(program uint32, name string) int32

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	CreateBuffer() uint32
	BindBuffer(target BufferTarget, buffer uint32)
	BufferFloat32(target BufferTarget, data []float32, usage Usage)
	BufferUint16(target BufferTarget, data []uint16, usage Usage)
	EnableVertexAttribArray(location uint32)
	VertexAttribPointer(location uint32, components, stride, offset int)

	Viewport(width, height int)
	DrawArrays(mode Primitive, first, count int)
	DrawElements(mode Primitive, count int)
	Flush()
}
