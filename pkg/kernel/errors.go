package kernel

import "fmt"

// ValidationError reports malformed input detected at read time:
// mismatched array lengths, out-of-range parameters, too few points.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// GeometryError reports a failed geometric construction step.
type GeometryError struct {
	Op      string
	Message string
	Err     error
}

func (e *GeometryError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return "geometry: " + msg
	}
	return fmt.Sprintf("geometry: %s: %s", e.Op, msg)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// NotFoundError reports a query without a matching result, such as a
// chord-normal ray that misses the profile curve.
type NotFoundError struct {
	Query   string
	Message string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s: %s", e.Query, e.Message)
}

// geometryErrorf is a shorthand used by the helpers in this package.
func geometryErrorf(op, format string, args ...any) error {
	return &GeometryError{Op: op, Message: fmt.Sprintf(format, args...)}
}
