package renderer

import (
	"errors"
	"fmt"
)

var (
	ErrResourcesUnavailable = errors.New("shader resources unavailable")
	ErrMissingResource      = errors.New("missing shader resource")
	ErrObjectCreation       = errors.New("gpu object could not be created")
	ErrCompile              = errors.New("shader compile failed")
	ErrLink                 = errors.New("program link failed")
	ErrAttributeResolution  = errors.New("vertex attribute not found")
	ErrPipelineUsed         = errors.New("pipeline already built")
)

// StageError is the terminal failure of a pipeline. Log holds the compiler or linker
// diagnostics exactly as the driver returned them.
type StageError struct {
	Stage   Stage
	Kind    error  // one of the Err* values above
	Subject string // what failed: "fragment shader", "program", an attribute name
	Log     string
	Err     error // underlying cause, if any
}

func (e *StageError) Error() string {
	msg := e.Stage.String() + ": "
	if e.Subject != "" {
		msg += e.Subject + ": "
	}
	msg += e.Kind.Error()
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
