package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
	"github.com/richinsley/goshaderquad/resource"
	"github.com/richinsley/goshaderquad/shader"
)

// Pipeline turns a resolved pair of shader sources into one draw call: compile, link,
// bind the vertex layout, upload the buffers and draw. It is single-use; every GPU call
// is made from the goroutine that calls Build.
type Pipeline struct {
	dev    graphics.Device
	schema shader.Schema
	layout shader.Layout
	logger *zap.Logger

	stage   Stage
	failure *StageError

	vertex    *shader.Unit
	fragment  *shader.Unit
	program   uint32
	locations []int32
	vao       uint32
	vbo       uint32
	ibo       uint32
}

// NewPipeline checks the vertex schema and returns a pipeline waiting for resources.
func NewPipeline(dev graphics.Device, schema shader.Schema, logger *zap.Logger) (*Pipeline, error) {
	if dev == nil {
		return nil, fmt.Errorf("new pipeline: device is nil")
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("new pipeline: vertex schema %q: %w", schema.Name, err)
	}
	layout, _ := schema.Layout()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		dev:    dev,
		schema: schema,
		layout: layout,
		logger: logger.With(zap.String("schema", schema.Name)),
		stage:  AwaitingResources,
	}, nil
}

// Stage returns the current stage.
func (p *Pipeline) Stage() Stage { return p.stage }

// Failure returns the terminal error, or nil unless the stage is Failed.
func (p *Pipeline) Failure() *StageError { return p.failure }

// Units returns the vertex and fragment units once compilation has started.
func (p *Pipeline) Units() (vertex, fragment *shader.Unit) { return p.vertex, p.fragment }

// Program returns the linked program handle, or 0.
func (p *Pipeline) Program() uint32 { return p.program }

// Layout returns the interleaved vertex layout the attributes are bound with.
func (p *Pipeline) Layout() shader.Layout { return p.layout }

// Build runs every stage to completion or to the first failure, which is returned as
// a *StageError. The bundle's sources are copied into the shader units; the pipeline
// keeps no reference to the bundle.
func (p *Pipeline) Build(bundle resource.Bundle[string]) error {
	if p.stage != AwaitingResources {
		return ErrPipelineUsed
	}
	if !bundle.Has(shader.Vertex.ResourceName(), shader.Fragment.ResourceName()) {
		return p.fail(&StageError{Stage: AwaitingResources, Kind: ErrMissingResource, Subject: missingNames(bundle)})
	}
	p.vertex = shader.NewUnit(shader.Vertex, bundle[shader.Vertex.ResourceName()])
	p.fragment = shader.NewUnit(shader.Fragment, bundle[shader.Fragment.ResourceName()])

	steps := []struct {
		stage Stage
		run   func() *StageError
	}{
		{CompilingShaders, p.compileShaders},
		{LinkingProgram, p.linkProgram},
		{BindingAttributes, p.bindAttributes},
		{UploadingBuffers, p.uploadBuffers},
		{Drawn, p.draw},
	}
	for _, step := range steps {
		p.enter(step.stage)
		if serr := step.run(); serr != nil {
			return p.fail(serr)
		}
	}
	p.logger.Info("pipeline complete", zap.Uint32("program", p.program), zap.Int("count", p.schema.DrawCount()))
	return nil
}

// Abort ends a pipeline that never received its resources.
func (p *Pipeline) Abort(cause error) error {
	if p.stage != AwaitingResources {
		return ErrPipelineUsed
	}
	return p.fail(&StageError{Stage: AwaitingResources, Kind: ErrResourcesUnavailable, Err: cause})
}

func (p *Pipeline) enter(s Stage) {
	p.stage = s
	p.logger.Info("pipeline stage", zap.Stringer("stage", s))
}

func (p *Pipeline) fail(serr *StageError) error {
	p.stage = Failed
	p.failure = serr
	fields := []zap.Field{
		zap.Stringer("stage", serr.Stage),
		zap.String("kind", serr.Kind.Error()),
	}
	if serr.Subject != "" {
		fields = append(fields, zap.String("subject", serr.Subject))
	}
	if serr.Log != "" {
		fields = append(fields, zap.String("log", serr.Log))
	}
	if serr.Err != nil {
		fields = append(fields, zap.NamedError("cause", serr.Err))
	}
	p.logger.Error("pipeline failed", fields...)
	return serr
}

// compileShaders compiles both units before deciding, so both logs are reported.
func (p *Pipeline) compileShaders() *StageError {
	var first *StageError
	for _, u := range []*shader.Unit{p.vertex, p.fragment} {
		serr := p.compileUnit(u)
		if serr == nil {
			p.logger.Debug("shader compiled", zap.Stringer("shader", u.Kind))
			continue
		}
		if serr.Log != "" {
			p.logger.Warn("shader compile log", zap.Stringer("shader", u.Kind), zap.String("log", serr.Log))
		}
		if first == nil {
			first = serr
		}
	}
	return first
}

func (p *Pipeline) compileUnit(u *shader.Unit) *StageError {
	subject := u.Kind.String() + " shader"
	h := p.dev.CreateShader(u.Kind.ShaderType())
	if h == 0 {
		return &StageError{Stage: CompilingShaders, Kind: ErrObjectCreation, Subject: subject}
	}
	u.Handle = h
	p.dev.ShaderSource(h, u.Source)
	p.dev.CompileShader(h)
	if !p.dev.ShaderCompiled(h) {
		u.Log = p.dev.ShaderInfoLog(h)
		return &StageError{Stage: CompilingShaders, Kind: ErrCompile, Subject: subject, Log: u.Log}
	}
	u.Compiled = true
	return nil
}

func (p *Pipeline) linkProgram() *StageError {
	prog := p.dev.CreateProgram()
	if prog == 0 {
		return &StageError{Stage: LinkingProgram, Kind: ErrObjectCreation, Subject: "program"}
	}
	p.dev.AttachShader(prog, p.vertex.Handle)
	p.dev.AttachShader(prog, p.fragment.Handle)
	p.dev.LinkProgram(prog)
	if !p.dev.ProgramLinked(prog) {
		return &StageError{Stage: LinkingProgram, Kind: ErrLink, Subject: "program", Log: p.dev.ProgramInfoLog(prog)}
	}

	// The program keeps its own copy of the compiled code.
	for _, u := range []*shader.Unit{p.vertex, p.fragment} {
		p.dev.DetachShader(prog, u.Handle)
		p.dev.DeleteShader(u.Handle)
	}
	p.program = prog
	p.dev.UseProgram(prog)
	return nil
}

func (p *Pipeline) bindAttributes() *StageError {
	p.locations = make([]int32, len(p.layout.Attributes))
	for i, a := range p.layout.Attributes {
		loc := p.dev.AttribLocation(p.program, a.Name)
		if loc < 0 {
			return &StageError{Stage: BindingAttributes, Kind: ErrAttributeResolution, Subject: a.Name}
		}
		p.locations[i] = loc
	}

	if p.vao = p.dev.CreateVertexArray(); p.vao == 0 {
		return &StageError{Stage: BindingAttributes, Kind: ErrObjectCreation, Subject: "vertex array"}
	}
	p.dev.BindVertexArray(p.vao)
	if p.vbo = p.dev.CreateBuffer(); p.vbo == 0 {
		return &StageError{Stage: BindingAttributes, Kind: ErrObjectCreation, Subject: "vertex buffer"}
	}
	p.dev.BindBuffer(graphics.ArrayBuffer, p.vbo)

	for i, a := range p.layout.Attributes {
		loc := uint32(p.locations[i])
		p.dev.EnableVertexAttribArray(loc)
		p.dev.VertexAttribPointer(loc, a.Components, p.layout.Stride, a.Offset)
		p.logger.Debug("attribute bound",
			zap.String("name", a.Name), zap.Uint32("location", loc),
			zap.Int("components", a.Components), zap.Int("offset", a.Offset), zap.Int("stride", p.layout.Stride))
	}
	return nil
}

// uploadBuffers fills the vertex buffer bound in bindAttributes and, for indexed
// schemas, an element buffer recorded in the same vertex array. Geometry never changes,
// so both use the static usage hint.
func (p *Pipeline) uploadBuffers() *StageError {
	p.dev.BufferFloat32(graphics.ArrayBuffer, p.schema.Vertices, graphics.StaticDraw)
	if !p.schema.Indexed() {
		return nil
	}
	if p.ibo = p.dev.CreateBuffer(); p.ibo == 0 {
		return &StageError{Stage: UploadingBuffers, Kind: ErrObjectCreation, Subject: "index buffer"}
	}
	p.dev.BindBuffer(graphics.ElementArrayBuffer, p.ibo)
	p.dev.BufferUint16(graphics.ElementArrayBuffer, p.schema.Indices, graphics.StaticDraw)
	return nil
}

func (p *Pipeline) draw() *StageError {
	if p.schema.Indexed() {
		p.dev.DrawElements(graphics.Triangles, len(p.schema.Indices))
	} else {
		p.dev.DrawArrays(graphics.Triangles, 0, p.schema.VertexCount())
	}
	p.dev.Flush()
	return nil
}

func missingNames(bundle resource.Bundle[string]) string {
	var missing []string
	for _, k := range []shader.Kind{shader.Vertex, shader.Fragment} {
		if n := k.ResourceName(); !bundle.Has(n) {
			missing = append(missing, n)
		}
	}
	return fmt.Sprint(missing)
}
