package value

import "fmt"

// DomainError is raised when an argument is syntactically the right
// kind but semantically invalid for the operation (e.g. a negative
// repeat count, the head of an empty collection).
type DomainError struct{ Message string }

func (e *DomainError) Error() string { return "domain error: " + e.Message }

// IndexOutOfBoundsError is raised by GET/SET when an index or
// end-of-range falls outside a container's length.
type IndexOutOfBoundsError struct {
	Len   int
	Index int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("end index %d is out of bounds for length %d", e.Index, e.Len)
}

// ConversionError is raised when an implicit coercion between kinds is
// undefined, such as converting a Block to an Integer.
type ConversionError struct{ From, To string }

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion to %s not defined for %s", e.To, e.From)
}

// IntegerError is raised for integer overflow or division/modulus by
// zero, and for out-of-bounds arguments to remainder/power when the
// corresponding compliance check is enabled.
type IntegerError struct{ Message string }

func (e *IntegerError) Error() string { return e.Message }

// TypeError is raised when an operator receives an argument it cannot
// coerce or accept at all (as opposed to DomainError, where the kind is
// right but the value is not).
type TypeError struct {
	Function string
	TypeName string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("bad type %s to function %s", e.TypeName, e.Function)
}
