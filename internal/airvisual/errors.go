package airvisual

import "fmt"

// ErrorKind tells where a fetch failed. Callers are not expected to branch
// on it; it is carried for logging and for the presentation layer.
type ErrorKind int

const (
	TransportError ErrorKind = iota
	DecodeError
)

func (k ErrorKind) String() string {
	switch k {
	case TransportError:
		return "transport"
	case DecodeError:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is the only error FetchConditions returns.
type FetchError struct {
	Kind ErrorKind
	// Status is the HTTP status code when a response was received, else 0.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("airvisual %s error (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("airvisual %s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
