//go:build !linux

package headless

import (
	"errors"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
)

// ErrUnsupported is returned on platforms without EGL pbuffer support.
var ErrUnsupported = errors.New("egl headless rendering is not supported on this platform")

func NewHeadless(width, height int, logger *zap.Logger) (graphics.Surface, error) {
	return nil, &graphics.SurfaceError{Step: "create headless surface", Err: ErrUnsupported}
}
