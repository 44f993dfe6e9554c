package value

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/knightlang/knight-vm/pkg/options"
)

// StringError is raised for an illegal byte under the configured
// Encoding, or for a string exceeding the configured length cap.
type StringError struct {
	Message string
}

func (e *StringError) Error() string { return e.Message }

// validateEncoding checks s against opts.Encoding, returning a
// StringError on the first disallowed byte.
//
// The utf8 encoding is validated with a real streaming UTF-8 decoder
// (golang.org/x/text/encoding/unicode + transform) rather than a
// hand-rolled byte-range loop, per this repository's dependency
// grounding (see DESIGN.md): the same concern joshuapare-hivekit solves
// with golang.org/x/text when round-tripping registry string encodings.
func validateEncoding(s []byte, enc options.Encoding) error {
	switch enc {
	case options.EncodingASCII:
		for i, b := range s {
			if b > 0x7F {
				return &StringError{Message: fmt.Sprintf("byte 0x%02x at offset %d is not valid ASCII", b, i)}
			}
		}
		return nil
	case options.EncodingUTF8:
		decoder := unicode.UTF8.NewDecoder()
		decoded, _, err := transform.Bytes(decoder, s)
		if err != nil {
			return &StringError{Message: "string is not valid UTF-8: " + err.Error()}
		}
		// The decoder substitutes U+FFFD for ill-formed sequences instead
		// of failing, so any change to the input marks invalid UTF-8.
		if !bytes.Equal(decoded, s) {
			return &StringError{Message: "string is not valid UTF-8"}
		}
		return nil
	default: // EncodingKnight
		for i, b := range s {
			if !isKnightByte(b) {
				return &StringError{Message: fmt.Sprintf("byte 0x%02x at offset %d is outside Knight's string encoding", b, i)}
			}
		}
		return nil
	}
}

// isKnightByte reports whether b is in Knight's explicit printable
// subset: tab, newline, and the printable ASCII range 0x20..0x7E.
func isKnightByte(b byte) bool {
	return b == '\t' || b == '\n' || (b >= 0x20 && b <= 0x7E)
}

// NewString allocates a string Value from raw bytes, validating the
// byte set against opts.Encoding and the length against
// opts.Compliance.CheckContainerLength.
func NewString(g *Gc, s []byte, opts options.Options) (Value, error) {
	if opts.Compliance.CheckContainerLength && len(s) > options.MaxContainerLength {
		return Value{}, &StringError{Message: "string length exceeds the configured cap"}
	}
	if err := validateEncoding(s, opts.Encoding); err != nil {
		return Value{}, err
	}
	if len(s) == 0 {
		return fromHeap(KindString, g.emptyString), nil
	}

	cell := g.alloc()
	cell.isList = false
	cell.strAllocated = len(s) > embeddedStringCap
	cell.strBytes = append([]byte(nil), s...)
	return fromHeap(KindString, cell), nil
}

// MustString is NewString under the zero Options (Knight encoding, no
// length cap) that panics instead of returning an error — for values
// already known to satisfy those checks (e.g. the decimal form of an
// integer, which only ever contains ASCII digits and a sign).
func MustString(g *Gc, s string) Value {
	v, err := NewString(g, []byte(s), options.Options{})
	if err != nil {
		panic(err)
	}
	return v
}

// StringBytes returns the raw bytes of a string cell.
func StringBytes(c *HeapCell) []byte { return stringBytesSlice(c) }

// StringConcat implements `+` over two strings: if either is empty,
// return the other; otherwise allocate a new string of length |a|+|b|.
func StringConcat(g *Gc, a, b *HeapCell, opts options.Options) (Value, error) {
	if a.Length() == 0 {
		return fromHeap(KindString, b), nil
	}
	if b.Length() == 0 {
		return fromHeap(KindString, a), nil
	}
	buf := make([]byte, 0, a.Length()+b.Length())
	buf = append(buf, stringBytesSlice(a)...)
	buf = append(buf, stringBytesSlice(b)...)
	return NewString(g, buf, opts)
}

// StringRepeat implements `*` over a string and an integer count.
func StringRepeat(g *Gc, s *HeapCell, n int64, opts options.Options) (Value, error) {
	if n == 0 {
		return fromHeap(KindString, g.emptyString), nil
	}
	if n == 1 {
		return fromHeap(KindString, s), nil
	}
	if n < 0 {
		return Value{}, &DomainError{Message: "cannot repeat a string a negative number of times"}
	}
	total := int64(s.Length()) * n
	if opts.Compliance.CheckContainerLength && total > options.MaxContainerLength {
		return Value{}, &StringError{Message: "repeated string length exceeds the configured cap"}
	}
	src := stringBytesSlice(s)
	buf := make([]byte, 0, total)
	for i := int64(0); i < n; i++ {
		buf = append(buf, src...)
	}
	return NewString(g, buf, opts)
}

// StringSlice implements byte-indexed substring extraction used by GET.
func StringSlice(g *Gc, s *HeapCell, start, length int, opts options.Options) (Value, error) {
	total := s.Length()
	if start < 0 || length < 0 || start+length > total {
		return Value{}, &IndexOutOfBoundsError{Len: total, Index: start + length}
	}
	src := stringBytesSlice(s)
	return NewString(g, src[start:start+length], opts)
}

// StringSplice implements SET's splice-replace over a string: the byte
// range [start, start+length) is replaced by repl. As with ListSet,
// length == 0 inserts without replacing anything.
func StringSplice(g *Gc, s *HeapCell, start, length int, repl []byte, opts options.Options) (Value, error) {
	total := s.Length()
	if start < 0 || length < 0 || start+length > total {
		return Value{}, &IndexOutOfBoundsError{Len: total, Index: start + length}
	}
	src := stringBytesSlice(s)
	buf := make([]byte, 0, total-length+len(repl))
	buf = append(buf, src[:start]...)
	buf = append(buf, repl...)
	buf = append(buf, src[start+length:]...)
	return NewString(g, buf, opts)
}

// StringHead returns the first byte of s as a one-byte string.
func StringHead(g *Gc, s *HeapCell, opts options.Options) (Value, error) {
	if s.Length() == 0 {
		return Value{}, &DomainError{Message: "head of an empty string"}
	}
	return NewString(g, stringBytesSlice(s)[:1], opts)
}

// StringTail returns every byte of s after the first.
func StringTail(g *Gc, s *HeapCell, opts options.Options) (Value, error) {
	if s.Length() == 0 {
		return Value{}, &DomainError{Message: "tail of an empty string"}
	}
	return NewString(g, stringBytesSlice(s)[1:], opts)
}

// StringOrd returns the byte code of s's first character.
func StringOrd(s *HeapCell) (int64, error) {
	if s.Length() == 0 {
		return 0, &DomainError{Message: "ASCII of an empty string"}
	}
	return int64(stringBytesSlice(s)[0]), nil
}

// StringChr constructs a one-byte string from a character code,
// checked against opts.Encoding.
func StringChr(g *Gc, code int64, opts options.Options) (Value, error) {
	if code < 0 || code > 255 {
		return Value{}, &DomainError{Message: "character code out of byte range"}
	}
	b := byte(code)
	if !isKnightByte(b) && opts.Encoding == options.EncodingKnight {
		return Value{}, &StringError{Message: "character code is outside Knight's string encoding"}
	}
	return NewString(g, []byte{b}, opts)
}

// StringReverse implements the XREVERSE extension over a string.
func StringReverse(g *Gc, s *HeapCell, opts options.Options) (Value, error) {
	src := stringBytesSlice(s)
	buf := make([]byte, len(src))
	for i, b := range src {
		buf[len(src)-1-i] = b
	}
	return NewString(g, buf, opts)
}
