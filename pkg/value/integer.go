package value

import (
	"math"

	"github.com/knightlang/knight-vm/pkg/options"
)

const (
	i32Min = -(1 << 31)
	i32Max = (1 << 31) - 1
)

// clampRange enforces Compliance.I32Integer on an arithmetic result.
func clampRange(n int64, opts options.Options) (int64, error) {
	if opts.Compliance.I32Integer && (n < i32Min || n > i32Max) {
		return 0, &IntegerError{Message: "integer result does not fit in 32 bits"}
	}
	return n, nil
}

// IntegerAdd implements `+` over two integers.
func IntegerAdd(a, b int64, opts options.Options) (int64, error) {
	sum := a + b
	if opts.Compliance.CheckOverflow && ((b > 0 && sum < a) || (b < 0 && sum > a)) {
		return 0, &IntegerError{Message: "integer overflow in addition"}
	}
	return clampRange(sum, opts)
}

// IntegerSub implements `-` over two integers.
func IntegerSub(a, b int64, opts options.Options) (int64, error) {
	diff := a - b
	if opts.Compliance.CheckOverflow && ((b < 0 && diff < a) || (b > 0 && diff > a)) {
		return 0, &IntegerError{Message: "integer overflow in subtraction"}
	}
	return clampRange(diff, opts)
}

// IntegerMul implements `*` over two integers.
func IntegerMul(a, b int64, opts options.Options) (int64, error) {
	prod := a * b
	if opts.Compliance.CheckOverflow && a != 0 && (prod/a != b || (a == -1 && b == math.MinInt64)) {
		return 0, &IntegerError{Message: "integer overflow in multiplication"}
	}
	return clampRange(prod, opts)
}

// IntegerDiv implements `/` over two integers. Division by zero is
// always an error, regardless of compliance options.
func IntegerDiv(a, b int64, opts options.Options) (int64, error) {
	if b == 0 {
		return 0, &IntegerError{Message: "division by zero"}
	}
	q := a / b
	if opts.Compliance.CheckOverflow && a == math.MinInt64 && b == -1 {
		return 0, &IntegerError{Message: "integer overflow in division"}
	}
	return clampRange(q, opts)
}

// IntegerMod implements `%` over two integers. Modulus by zero is
// always an error; a negative base (dividend) or a negative divisor is
// an error only when CheckIntegerFunctionBounds is enabled.
func IntegerMod(a, b int64, opts options.Options) (int64, error) {
	if b == 0 {
		return 0, &IntegerError{Message: "modulus by zero"}
	}
	if opts.Compliance.CheckIntegerFunctionBounds && (a < 0 || b < 0) {
		return 0, &IntegerError{Message: "negative operand to remainder"}
	}
	return clampRange(a%b, opts)
}

// IntegerPow implements `^` over two integers. A negative exponent is
// an error only when CheckIntegerFunctionBounds is enabled; otherwise
// it follows Knight's convention of returning 0 (or 1/-1 for base ±1).
func IntegerPow(base, exp int64, opts options.Options) (int64, error) {
	if exp < 0 {
		if opts.Compliance.CheckIntegerFunctionBounds {
			return 0, &IntegerError{Message: "negative exponent to power"}
		}
		switch base {
		case 1:
			return 1, nil
		case -1:
			if exp%2 == 0 {
				return 1, nil
			}
			return -1, nil
		default:
			return 0, nil
		}
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if opts.Compliance.CheckOverflow && result != 0 && next/result != base {
			return 0, &IntegerError{Message: "integer overflow in power"}
		}
		result = next
	}
	return clampRange(result, opts)
}

// IntegerNegate implements `~`.
func IntegerNegate(a int64, opts options.Options) (int64, error) {
	if opts.Compliance.CheckOverflow && a == math.MinInt64 {
		return 0, &IntegerError{Message: "integer overflow in negation"}
	}
	return clampRange(-a, opts)
}

// IntegerToList converts n to a list of its decimal digits, most
// significant first, per Knight's defined INT-to-LIST coercion. A
// negative n is a domain error when DisallowNegativeIntToList is set.
func IntegerToList(g *Gc, n int64, opts options.Options) (Value, error) {
	if n < 0 && opts.Compliance.DisallowNegativeIntToList {
		return Value{}, &DomainError{Message: "cannot convert a negative integer to a list"}
	}
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return newListCell(g, []Value{Integer(0)}), nil
	}
	var digits []Value
	for n > 0 {
		digits = append([]Value{Integer(n % 10)}, digits...)
		n /= 10
	}
	if neg {
		digits[0] = Integer(-(func() int64 { v, _ := digits[0].AsInteger(); return v }()))
	}
	return newListCell(g, digits), nil
}
