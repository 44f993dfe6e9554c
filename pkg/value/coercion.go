package value

import (
	"strconv"
	"strings"

	"github.com/knightlang/knight-vm/pkg/options"
)

// ToBoolean implements Knight's truthiness coercion: null and false are
// false; zero, the empty string, and the empty list are false;
// everything else is true. Blocks have no boolean coercion.
func (v Value) ToBoolean(opts options.Options) (bool, error) {
	switch v.kind {
	case KindNull:
		return false, nil
	case KindBoolean:
		b, _ := v.AsBoolean()
		return b, nil
	case KindInteger:
		n, _ := v.AsInteger()
		return n != 0, nil
	case KindString:
		return v.heap.Length() != 0, nil
	case KindList:
		return v.heap.Length() != 0, nil
	case KindBlock:
		return false, &ConversionError{From: "Block", To: "Boolean"}
	default:
		return false, &TypeError{Function: "ToBoolean", TypeName: v.kind.String()}
	}
}

// ToInteger implements Knight's integer coercion: null and false are 0;
// true is 1; a string is parsed leniently (optional sign, leading
// digits, trailing garbage ignored; no digits parses as 0); a list
// yields its length. Blocks have no integer coercion.
func (v Value) ToInteger() (int64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindBoolean:
		b, _ := v.AsBoolean()
		if b {
			return 1, nil
		}
		return 0, nil
	case KindInteger:
		n, _ := v.AsInteger()
		return n, nil
	case KindString:
		return parseLeadingInteger(string(stringBytesSlice(v.heap))), nil
	case KindList:
		return int64(v.heap.Length()), nil
	case KindBlock:
		return 0, &ConversionError{From: "Block", To: "Integer"}
	default:
		return 0, &TypeError{Function: "ToInteger", TypeName: v.kind.String()}
	}
}

func parseLeadingInteger(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ToKnString implements Knight's string coercion: null is "null",
// booleans are "true"/"false", integers are their decimal form, a
// string is itself, a list is its elements joined with "\n". Blocks
// have no string coercion, whether or not NoBlockConversions is set.
func (v Value) ToKnString(g *Gc, opts options.Options) (Value, error) {
	switch v.kind {
	case KindString:
		return v, nil
	case KindNull, KindBoolean, KindInteger:
		return NewString(g, []byte(v.Display()), opts)
	case KindList:
		return ListJoin(g, v.heap, "\n", opts)
	case KindBlock:
		return Value{}, &ConversionError{From: "Block", To: "String"}
	default:
		return Value{}, &TypeError{Function: "ToKnString", TypeName: v.kind.String()}
	}
}

// ToKnList implements Knight's list coercion: null coerces to the empty
// list; false coerces to the empty list and true to a single-element
// list containing true; an integer yields its digit list (see
// IntegerToList); a string yields a list of its one-byte substrings; a
// list is itself. Blocks have no list coercion.
func (v Value) ToKnList(g *Gc, opts options.Options) (Value, error) {
	switch v.kind {
	case KindList:
		return v, nil
	case KindNull:
		return EmptyList(), nil
	case KindBoolean:
		b, _ := v.AsBoolean()
		if !b {
			return EmptyList(), nil
		}
		return newListCell(g, []Value{Boolean(true)}), nil
	case KindString:
		src := stringBytesSlice(v.heap)
		vals := make([]Value, len(src))
		for i := range src {
			sv, err := NewString(g, src[i:i+1], opts)
			if err != nil {
				return Value{}, err
			}
			vals[i] = sv
		}
		return newListCell(g, vals), nil
	case KindInteger:
		n, _ := v.AsInteger()
		return IntegerToList(g, n, opts)
	default:
		return Value{}, &ConversionError{From: v.kind.String(), To: "List"}
	}
}
