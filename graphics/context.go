package graphics

import "fmt"

// Surface defines the interface for a drawable host surface with a current GL context.
type Surface interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	IsGLES() bool
}

// SurfaceError reports that no drawable surface or rendering context could be acquired.
// It is fatal: nothing is fetched once surface acquisition fails.
type SurfaceError struct {
	Step string
	Err  error
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("surface: %s failed", e.Step)
	}
	return fmt.Sprintf("surface: %s failed: %v", e.Step, e.Err)
}

func (e *SurfaceError) Unwrap() error { return e.Err }
