package resource

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	// Transport means the resource could not be retrieved: the request failed,
	// the host answered with a non-success status, or the file could not be read.
	Transport ErrorKind = iota + 1
	// Decode means the body was retrieved but is not usable text.
	Decode
)

func (k ErrorKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Decode:
		return "decode"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against a *FetchError of the same kind.
var (
	ErrTransport = errors.New("transport error")
	ErrDecode    = errors.New("decode error")
)

var (
	ErrDuplicateName = errors.New("duplicate resource name")
	ErrUnnamed       = errors.New("resource request has no name")
	ErrIncomplete    = errors.New("result stream ended before every resource reported")
)

// FetchError reports a failed fetch of one resource.
type FetchError struct {
	Kind       ErrorKind
	Name       string
	Location   string
	StatusCode int // HTTP status when the host answered with a non-success code
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s (%s): %s error", e.Name, e.Location, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == Transport
	case ErrDecode:
		return e.Kind == Decode
	}
	return false
}

func transportError(location string, status int, err error) *FetchError {
	return &FetchError{Kind: Transport, Location: location, StatusCode: status, Err: err}
}

func decodeError(location string, err error) *FetchError {
	return &FetchError{Kind: Decode, Location: location, Err: err}
}
