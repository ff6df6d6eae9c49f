//go:build linux

package headless

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
)

/*
#cgo LDFLAGS: -lEGL -lGLESv2
#include <EGL/egl.h>
#include <EGL/eglext.h>

#define QUAD_MAX_DEVICES 16

static EGLDeviceEXT quad_devices[QUAD_MAX_DEVICES];

// quad_enumerate_devices fills quad_devices and returns how many it found, or -1 when
// the driver lacks EGL_EXT_device_enumeration.
static EGLint quad_enumerate_devices(void) {
    PFNEGLQUERYDEVICESEXTPROC query =
        (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    EGLint n = 0;
    if (query == NULL || query(QUAD_MAX_DEVICES, quad_devices, &n) == EGL_FALSE) {
        return -1;
    }
    return n;
}

static EGLDisplay quad_device_display(EGLint i) {
    PFNEGLGETPLATFORMDISPLAYEXTPROC get =
        (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
    if (get == NULL || i < 0 || i >= QUAD_MAX_DEVICES) {
        return EGL_NO_DISPLAY;
    }
    return get(EGL_PLATFORM_DEVICE_EXT, quad_devices[i], NULL);
}

static EGLDisplay quad_default_display(void) {
    return eglGetDisplay(EGL_DEFAULT_DISPLAY);
}
*/
import "C"

var (
	noDisplay = C.EGLDisplay(C.EGL_NO_DISPLAY)
	noSurface = C.EGLSurface(C.EGL_NO_SURFACE)
	noContext = C.EGLContext(C.EGL_NO_CONTEXT)
)

// RGBA8 with depth, renderable by GLES 3, drawable into a pbuffer.
var pbufferConfig = []C.EGLint{
	C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
	C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES3_BIT,
	C.EGL_RED_SIZE, 8,
	C.EGL_GREEN_SIZE, 8,
	C.EGL_BLUE_SIZE, 8,
	C.EGL_ALPHA_SIZE, 8,
	C.EGL_DEPTH_SIZE, 24,
	C.EGL_NONE,
}

var gles3Context = []C.EGLint{C.EGL_CONTEXT_CLIENT_VERSION, 3, C.EGL_NONE}

// Headless draws into an offscreen EGL pbuffer through a GLES 3 context. There is no
// window to keep open, so ShouldClose is always true.
type Headless struct {
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
}

// eglFailure wraps the thread's pending EGL error code.
func eglFailure(step string) *graphics.SurfaceError {
	return &graphics.SurfaceError{Step: step, Err: fmt.Errorf("egl error 0x%04x", int(C.eglGetError()))}
}

// openDisplay prefers the first enumerated device that yields a display, which on a
// GPU host without a display server is the GPU itself.
func openDisplay(logger *zap.Logger) (C.EGLDisplay, error) {
	n := int(C.quad_enumerate_devices())
	if n <= 0 {
		logger.Warn("egl device enumeration unavailable, falling back to the default display")
		if d := C.quad_default_display(); d != noDisplay {
			return d, nil
		}
		return noDisplay, errors.New("no default egl display")
	}

	logger.Debug("egl devices enumerated", zap.Int("count", n))
	for i := 0; i < n; i++ {
		if d := C.quad_device_display(C.EGLint(i)); d != noDisplay {
			logger.Debug("egl device display opened", zap.Int("device", i))
			return d, nil
		}
	}
	return noDisplay, fmt.Errorf("none of %d egl devices yields a display", n)
}

// NewHeadless opens a width x height pbuffer and makes its context current on the
// calling thread.
func NewHeadless(width, height int, logger *zap.Logger) (*Headless, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	display, err := openDisplay(logger)
	if err != nil {
		return nil, &graphics.SurfaceError{Step: "open egl display", Err: err}
	}

	var major, minor C.EGLint
	if C.eglInitialize(display, &major, &minor) == C.EGL_FALSE {
		return nil, eglFailure("initialize egl")
	}
	logger.Info("egl initialized", zap.Int("major", int(major)), zap.Int("minor", int(minor)))

	h := &Headless{display: display, width: width, height: height}
	if err := h.attach(); err != nil {
		h.Shutdown()
		return nil, err
	}
	return h, nil
}

func (h *Headless) attach() error {
	var config C.EGLConfig
	var matched C.EGLint
	if C.eglChooseConfig(h.display, &pbufferConfig[0], &config, 1, &matched) == C.EGL_FALSE || matched == 0 {
		return eglFailure("choose egl config")
	}

	size := []C.EGLint{C.EGL_WIDTH, C.EGLint(h.width), C.EGL_HEIGHT, C.EGLint(h.height), C.EGL_NONE}
	if h.surface = C.eglCreatePbufferSurface(h.display, config, &size[0]); h.surface == noSurface {
		return eglFailure("create pbuffer surface")
	}
	if h.context = C.eglCreateContext(h.display, config, noContext, &gles3Context[0]); h.context == noContext {
		return eglFailure("create egl context")
	}
	if C.eglMakeCurrent(h.display, h.surface, h.surface, h.context) == C.EGL_FALSE {
		return eglFailure("make egl context current")
	}
	return nil
}

func (h *Headless) MakeCurrent() {
	C.eglMakeCurrent(h.display, h.surface, h.surface, h.context)
}

// Shutdown releases the context, surface and display. Calling it twice is harmless.
func (h *Headless) Shutdown() {
	if h.display == noDisplay {
		return
	}
	C.eglMakeCurrent(h.display, noSurface, noSurface, noContext)
	if h.context != noContext {
		C.eglDestroyContext(h.display, h.context)
	}
	if h.surface != noSurface {
		C.eglDestroySurface(h.display, h.surface)
	}
	C.eglTerminate(h.display)
	h.display, h.surface, h.context = noDisplay, noSurface, noContext
}

func (h *Headless) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

func (h *Headless) ShouldClose() bool { return true }

func (h *Headless) GetFramebufferSize() (int, int) { return h.width, h.height }

func (h *Headless) IsGLES() bool { return true }

var _ graphics.Surface = (*Headless)(nil)
