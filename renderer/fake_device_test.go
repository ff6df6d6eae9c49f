package renderer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/richinsley/goshaderquad/graphics"
)

// fakeDevice records every call. A shader compiles when its source declares main;
// otherwise it fails with a driver-style log. An attribute resolves only when the
// attached vertex shader declares it as an input and locations has an entry for it.
type fakeDevice struct {
	calls []string

	next      uint32
	sources   map[uint32]string
	types     map[uint32]graphics.ShaderType
	compiled  map[uint32]bool
	attached  map[uint32][]uint32
	buffers   map[graphics.BufferTarget]uint32
	floats    []float32
	indices   []uint16
	pointers  []pointer
	draws     []draw
	program   uint32
	flushes   int
	locations map[string]int32

	failCreate map[string]bool // "shader", "program", "vertexarray", "buffer"
	linkLog    string          // non-empty makes linking fail
}

type pointer struct {
	location                   uint32
	components, stride, offset int
	buffer                     uint32
}

type draw struct {
	indexed     bool
	mode        graphics.Primitive
	first       int
	count       int
	arrayBuffer uint32
	elemBuffer  uint32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		sources:    map[uint32]string{},
		types:      map[uint32]graphics.ShaderType{},
		compiled:   map[uint32]bool{},
		attached:   map[uint32][]uint32{},
		buffers:    map[graphics.BufferTarget]uint32{},
		locations:  map[string]int32{"vertex_position": 0, "color": 1},
		failCreate: map[string]bool{},
	}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (d *fakeDevice) handle(kind string) uint32 {
	if d.failCreate[kind] {
		return 0
	}
	d.next++
	return d.next
}

func (d *fakeDevice) CreateShader(t graphics.ShaderType) uint32 {
	d.record("CreateShader %s", t)
	h := d.handle("shader")
	if h != 0 {
		d.types[h] = t
	}
	return h
}

func (d *fakeDevice) ShaderSource(sh uint32, src string) {
	d.record("ShaderSource %d", sh)
	d.sources[sh] = src
}

func (d *fakeDevice) CompileShader(sh uint32) {
	d.record("CompileShader %d", sh)
	d.compiled[sh] = strings.Contains(d.sources[sh], "void main")
}

func (d *fakeDevice) ShaderCompiled(sh uint32) bool { return d.compiled[sh] }

func (d *fakeDevice) ShaderInfoLog(sh uint32) string {
	if d.compiled[sh] {
		return ""
	}
	return fmt.Sprintf("ERROR: 0:1: '%s' : syntax error\n", strings.Fields(d.sources[sh]+" <eof>")[0])
}

func (d *fakeDevice) DeleteShader(sh uint32) { d.record("DeleteShader %d", sh) }

func (d *fakeDevice) CreateProgram() uint32 {
	d.record("CreateProgram")
	return d.handle("program")
}

func (d *fakeDevice) AttachShader(p, sh uint32) {
	d.record("AttachShader %d %d", p, sh)
	d.attached[p] = append(d.attached[p], sh)
}

func (d *fakeDevice) DetachShader(p, sh uint32) { d.record("DetachShader %d %d", p, sh) }
func (d *fakeDevice) LinkProgram(p uint32)      { d.record("LinkProgram %d", p) }

func (d *fakeDevice) ProgramLinked(p uint32) bool {
	if d.linkLog != "" {
		return false
	}
	for _, sh := range d.attached[p] {
		if !d.compiled[sh] {
			return false
		}
	}
	return len(d.attached[p]) == 2
}

func (d *fakeDevice) ProgramInfoLog(p uint32) string { return d.linkLog }

func (d *fakeDevice) UseProgram(p uint32) {
	d.record("UseProgram %d", p)
	d.program = p
}

func (d *fakeDevice) AttribLocation(p uint32, name string) int32 {
	d.record("AttribLocation %s", name)
	if !d.declaresInput(p, name) {
		return -1
	}
	if loc, ok := d.locations[name]; ok {
		return loc
	}
	return -1
}

func (d *fakeDevice) declaresInput(p uint32, name string) bool {
	decl := regexp.MustCompile(`\bin\s+\w+\s+` + regexp.QuoteMeta(name) + `\s*;`)
	for _, sh := range d.attached[p] {
		if d.types[sh] == graphics.VertexShader && decl.MatchString(d.sources[sh]) {
			return true
		}
	}
	return false
}

func (d *fakeDevice) CreateVertexArray() uint32 {
	d.record("CreateVertexArray")
	return d.handle("vertexarray")
}

func (d *fakeDevice) BindVertexArray(vao uint32) { d.record("BindVertexArray %d", vao) }

func (d *fakeDevice) CreateBuffer() uint32 {
	d.record("CreateBuffer")
	return d.handle("buffer")
}

func (d *fakeDevice) BindBuffer(target graphics.BufferTarget, b uint32) {
	d.record("BindBuffer %d %d", target, b)
	d.buffers[target] = b
}

func (d *fakeDevice) BufferFloat32(target graphics.BufferTarget, data []float32, usage graphics.Usage) {
	d.record("BufferFloat32 %d %d usage=%d", target, len(data), usage)
	d.floats = append([]float32(nil), data...)
}

func (d *fakeDevice) BufferUint16(target graphics.BufferTarget, data []uint16, usage graphics.Usage) {
	d.record("BufferUint16 %d %d usage=%d", target, len(data), usage)
	d.indices = append([]uint16(nil), data...)
}

func (d *fakeDevice) EnableVertexAttribArray(loc uint32) { d.record("EnableVertexAttribArray %d", loc) }

func (d *fakeDevice) VertexAttribPointer(loc uint32, components, stride, offset int) {
	d.record("VertexAttribPointer %d", loc)
	d.pointers = append(d.pointers, pointer{loc, components, stride, offset, d.buffers[graphics.ArrayBuffer]})
}

func (d *fakeDevice) Viewport(w, h int) { d.record("Viewport %d %d", w, h) }

func (d *fakeDevice) DrawArrays(mode graphics.Primitive, first, count int) {
	d.record("Draw")
	d.draws = append(d.draws, draw{mode: mode, first: first, count: count, arrayBuffer: d.buffers[graphics.ArrayBuffer]})
}

func (d *fakeDevice) DrawElements(mode graphics.Primitive, count int) {
	d.record("Draw")
	d.draws = append(d.draws, draw{
		indexed: true, mode: mode, count: count,
		arrayBuffer: d.buffers[graphics.ArrayBuffer], elemBuffer: d.buffers[graphics.ElementArrayBuffer],
	})
}

func (d *fakeDevice) Flush() {
	d.record("Flush")
	d.flushes++
}

var _ graphics.Device = (*fakeDevice)(nil)
