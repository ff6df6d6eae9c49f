// Package gldevice implements graphics.Device on top of the go-gl bindings. Every method
// must be called on the thread that owns the current GL context.
package gldevice

import (
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
	"github.com/richinsley/goshaderquad/translator"
)

var glInitOnce sync.Once
var glInitErr error

// Device issues GL calls for the current context. Shader source is translated from
// WebGL2 GLSL to the context's dialect before it reaches the driver.
type Device struct {
	gles   bool
	logger *zap.Logger

	types        map[uint32]graphics.ShaderType
	translated   map[uint32]*translator.Translated
	translateErr map[uint32]string // reported as the info log
	programVars  map[uint32]*translator.Translated
}

// New loads the GL entry points (once per process) for the context that is current on
// the calling thread. gles selects ESSL output instead of GLSL 4.10.
func New(gles bool, logger *zap.Logger) (*Device, error) {
	glInitOnce.Do(func() {
		glInitErr = gl.Init()
	})
	if glInitErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", glInitErr)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("gl device ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Bool("gles", gles))

	return &Device{
		gles:         gles,
		logger:       logger,
		types:        make(map[uint32]graphics.ShaderType),
		translated:   make(map[uint32]*translator.Translated),
		translateErr: make(map[uint32]string),
		programVars:  make(map[uint32]*translator.Translated),
	}, nil
}

func (d *Device) CreateShader(t graphics.ShaderType) uint32 {
	var kind uint32
	switch t {
	case graphics.VertexShader:
		kind = gl.VERTEX_SHADER
	case graphics.FragmentShader:
		kind = gl.FRAGMENT_SHADER
	default:
		return 0
	}
	sh := gl.CreateShader(kind)
	if sh != 0 {
		d.types[sh] = t
	}
	return sh
}

// ShaderSource translates source and hands the result to the driver. If translation
// fails nothing is uploaded and the next compile reports the translator's message.
func (d *Device) ShaderSource(sh uint32, source string) {
	tr, err := translator.Translate(source, d.types[sh], d.gles)
	if err != nil {
		d.translateErr[sh] = err.Error()
		return
	}
	delete(d.translateErr, sh)
	d.translated[sh] = tr
	d.logger.Debug("shader translated", zap.Stringer("shader", d.types[sh]), zap.Int("bytes", len(tr.Code)))

	csources, free := gl.Strs(tr.Code + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
}

func (d *Device) CompileShader(sh uint32) {
	if _, failed := d.translateErr[sh]; failed {
		return
	}
	gl.CompileShader(sh)
}

func (d *Device) ShaderCompiled(sh uint32) bool {
	if _, failed := d.translateErr[sh]; failed {
		return false
	}
	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (d *Device) ShaderInfoLog(sh uint32) string {
	if msg, failed := d.translateErr[sh]; failed {
		return msg
	}
	var logLength int32
	gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (d *Device) DeleteShader(sh uint32) {
	gl.DeleteShader(sh)
	delete(d.types, sh)
	delete(d.translated, sh)
	delete(d.translateErr, sh)
}

func (d *Device) CreateProgram() uint32 { return gl.CreateProgram() }

// AttachShader also remembers the vertex shader's renamed inputs for AttribLocation.
func (d *Device) AttachShader(program, sh uint32) {
	gl.AttachShader(program, sh)
	if d.types[sh] == graphics.VertexShader {
		if tr, ok := d.translated[sh]; ok {
			d.programVars[program] = tr
		}
	}
}

func (d *Device) DetachShader(program, sh uint32) { gl.DetachShader(program, sh) }
func (d *Device) LinkProgram(program uint32)      { gl.LinkProgram(program) }

func (d *Device) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (d *Device) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (d *Device) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Device) AttribLocation(program uint32, name string) int32 {
	mapped := name
	if tr, ok := d.programVars[program]; ok {
		mapped = tr.MappedName(name)
	}
	return gl.GetAttribLocation(program, gl.Str(mapped+"\x00"))
}

func (d *Device) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Device) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (d *Device) CreateBuffer() uint32 {
	var b uint32
	gl.GenBuffers(1, &b)
	return b
}

func (d *Device) BindBuffer(target graphics.BufferTarget, buffer uint32) {
	gl.BindBuffer(glTarget(target), buffer)
}

func (d *Device) BufferFloat32(target graphics.BufferTarget, data []float32, usage graphics.Usage) {
	if len(data) == 0 {
		return
	}
	gl.BufferData(glTarget(target), len(data)*4, gl.Ptr(data), glUsage(usage))
}

func (d *Device) BufferUint16(target graphics.BufferTarget, data []uint16, usage graphics.Usage) {
	if len(data) == 0 {
		return
	}
	gl.BufferData(glTarget(target), len(data)*2, gl.Ptr(data), glUsage(usage))
}

func (d *Device) EnableVertexAttribArray(location uint32) { gl.EnableVertexAttribArray(location) }

// VertexAttribPointer describes a float attribute; stride and offset are in bytes.
func (d *Device) VertexAttribPointer(location uint32, components, stride, offset int) {
	gl.VertexAttribPointer(location, int32(components), gl.FLOAT, false, int32(stride), gl.PtrOffset(offset))
}

func (d *Device) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (d *Device) DrawArrays(mode graphics.Primitive, first, count int) {
	gl.DrawArrays(glPrimitive(mode), int32(first), int32(count))
}

// DrawElements draws from the element buffer bound in the current vertex array.
func (d *Device) DrawElements(mode graphics.Primitive, count int) {
	gl.DrawElements(glPrimitive(mode), int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func (d *Device) Flush() { gl.Flush() }

// ReadPixels returns the bottom-up RGBA contents of the current framebuffer.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func glTarget(t graphics.BufferTarget) uint32 {
	if t == graphics.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

// Geometry is uploaded once and drawn as a triangle list, so each of these enums has a
// single GL value.
func glUsage(graphics.Usage) uint32 { return gl.STATIC_DRAW }

func glPrimitive(graphics.Primitive) uint32 { return gl.TRIANGLES }

var _ graphics.Device = (*Device)(nil)
