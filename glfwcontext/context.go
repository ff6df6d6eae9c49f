package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
)

const windowTitle = "goshaderquad"

// Context is a GLFW window with a GL 4.1 core context.
type Context struct {
	window *glfw.Window
}

// New creates a window of the given size. InitGraphics must have succeeded first.
func New(width, height int, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	if !visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, windowTitle, nil, nil)
	if err != nil {
		return nil, &graphics.SurfaceError{Step: "create window", Err: err}
	}

	win.SetKeyCallback(closeOnEscape)
	return &Context{window: win}, nil
}

func closeOnEscape(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// IsGLES is always false: the window is created with a desktop core profile.
func (c *Context) IsGLES() bool { return false }

// MakeCurrent makes the context current for the calling thread.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

// WaitEvents blocks until a window event arrives.
func (c *Context) WaitEvents() {
	glfw.WaitEvents()
}

// Wake unblocks a pending WaitEvents from any goroutine.
func Wake() {
	glfw.PostEmptyEvent()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// InitGraphics initializes GLFW. It must be called from the main thread, which it locks.
func InitGraphics(logger *zap.Logger) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return &graphics.SurfaceError{Step: "initialize glfw", Err: err}
	}
	logger.Debug("glfw initialized", zap.String("version", glfw.GetVersionString()))
	return nil
}

// TerminateGraphics shuts GLFW down. It must be called from the main thread.
func TerminateGraphics(logger *zap.Logger) {
	glfw.Terminate()
	logger.Debug("glfw terminated")
}

var _ graphics.Surface = (*Context)(nil)
