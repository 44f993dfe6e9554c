// Package options defines the configuration surface for the Knight
// bytecode pipeline: the string/integer encoding, the optional
// compliance checks, the optional language extensions, and a small set
// of quality-of-life and embedding toggles.
//
// Design Philosophy:
//
// Every behavior that the Knight specification leaves as
// implementation-defined, or that this implementation adds as an
// extension beyond vanilla Knight, is gated by exactly one field here.
// Nothing in pkg/value, pkg/compiler, or pkg/vm reads global state or
// environment variables to make a semantic decision — an Options value
// is threaded explicitly through compilation and execution, following
// smog's pattern of passing mutable collaborators (the class registry,
// the debugger) through the VM rather than reaching for package-level
// singletons.
//
// The zero value of Options is "strictly vanilla Knight with unchecked
// 64-bit integers and the knight encoding" — every toggle defaults to
// off, and Encoding defaults to EncodingKnight.
package options

// Encoding selects the byte set a Knight string is allowed to contain.
type Encoding byte

const (
	// EncodingKnight is the Knight specification's explicit printable
	// subset (tab, newline, and 0x20..0x7E). This is the default.
	EncodingKnight Encoding = iota

	// EncodingASCII allows the full 7-bit ASCII range.
	EncodingASCII

	// EncodingUTF8 allows any valid UTF-8 byte sequence.
	EncodingUTF8
)

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingUTF8:
		return "utf8"
	default:
		return "knight"
	}
}

// MaxVariableNameLen is the cap enforced when Compliance.VariableNameLength
// is set, per the Knight specification.
const MaxVariableNameLen = 127

// MaxVariableCount is the cap enforced when Compliance.VariableCount is
// set, per the Knight specification.
const MaxVariableCount = 65535

// MaxContainerLength is the cap enforced on strings and lists when
// Compliance.CheckContainerLength is set.
const MaxContainerLength = (1 << 31) - 1

// Compliance holds strictness toggles that bring this implementation
// closer to the letter of the Knight specification at the cost of
// extra runtime checks. All default to false (permissive).
type Compliance struct {
	// CheckContainerLength caps strings and lists at MaxContainerLength.
	CheckContainerLength bool

	// I32Integer requires every integer result to fit in signed 32 bits.
	I32Integer bool

	// CheckOverflow raises an error on integer overflow instead of
	// silently wrapping two's-complement.
	CheckOverflow bool

	// CheckIntegerFunctionBounds disallows a negative modulus base or
	// divisor and a negative power exponent.
	CheckIntegerFunctionBounds bool

	// VariableNameLength caps variable names at MaxVariableNameLen bytes.
	VariableNameLength bool

	// VariableCount caps distinct variables at MaxVariableCount.
	VariableCount bool

	// ForbidTrailingTokens rejects programs with leftover tokens after
	// the top-level expression.
	ForbidTrailingTokens bool

	// CheckEqualsParams rejects `?` when given block-typed arguments.
	CheckEqualsParams bool

	// NoBlockConversions is accepted for configuration completeness but
	// is not read: coercing a block to a boolean, integer, string, or
	// list is rejected whether or not it is set.
	NoBlockConversions bool

	// StrictBlocks rejects DUMP of block values.
	StrictBlocks bool

	// LimitRandRange restricts RANDOM to a conservative positive range.
	LimitRandRange bool

	// CheckQuitStatusCodes restricts QUIT to the POSIX exit code range
	// 0..255.
	CheckQuitStatusCodes bool

	// DisallowNegativeIntToList rejects converting a negative integer
	// to a list (which would otherwise yield the digits of its
	// magnitude with the sign carried on the first digit).
	DisallowNegativeIntToList bool
}

// Functions gates the VALUE and EVAL extension functions.
type Functions struct {
	Eval  bool
	Value bool
}

// ControlFlow gates the XBREAK/XCONTINUE/HANDLE extension syntax.
type ControlFlow struct {
	Break    bool
	Continue bool
	Handle   bool
}

// Extensions holds toggles for every non-vanilla Knight feature this
// implementation supports. All default to false.
type Extensions struct {
	Functions       Functions
	ControlFlow     ControlFlow
	NegativeIndexing bool
	Argv             bool

	// Yeet enables the YEET user-error-raising function.
	Yeet bool

	// Use enables the USE file-read function.
	Use bool

	// System enables the `$` shell-command function.
	System bool

	// Xsrand enables the XSRAND RNG-reseed function.
	Xsrand bool

	// Xreverse enables the XREVERSE string/list-reverse function.
	Xreverse bool

	// Xrange enables the XRANGE integer-range function. A non-integer
	// first argument is a type error; character ranges are not built.
	Xrange bool

	// StringInterpolation enables `...${expr}...` string literals.
	StringInterpolation bool
}

// QualityOfLife holds toggles that improve the diagnosability of a run
// without changing the result of well-formed programs.
type QualityOfLife struct {
	// Stacktrace enables call-stack tracking and decorates runtime
	// errors with a rendered stack trace.
	Stacktrace bool
}

// Embedded holds toggles relevant when this package is used as a
// library rather than run as a standalone CLI.
type Embedded struct {
	// DontExitWhenQuitting is set by cmd/knight but is not read: QUIT
	// always surfaces as a *vm.QuitError returned from Run, and the VM
	// never calls os.Exit itself, whether or not this is set.
	DontExitWhenQuitting bool
}

// Options is the full configuration surface threaded through the
// compiler, the VM, and the host environment.
type Options struct {
	Encoding   Encoding
	Compliance Compliance
	Extensions Extensions
	QoL        QualityOfLife
	Embedded   Embedded
}

// Strict returns a copy of o with every Compliance check enabled. It
// is the realization of cmd/knight's `--strict` flag.
func (o Options) Strict() Options {
	o.Compliance = Compliance{
		CheckContainerLength:       true,
		I32Integer:                 true,
		CheckOverflow:              true,
		CheckIntegerFunctionBounds: true,
		VariableNameLength:         true,
		VariableCount:              true,
		ForbidTrailingTokens:       true,
		CheckEqualsParams:          true,
		NoBlockConversions:         true,
		StrictBlocks:               true,
		LimitRandRange:             true,
		CheckQuitStatusCodes:       true,
		DisallowNegativeIntToList:  true,
	}
	return o
}

// AllExtensions returns a copy of o with every Extension enabled. It is
// the realization of cmd/knight's `--ext-all` flag.
func (o Options) AllExtensions() Options {
	o.Extensions = Extensions{
		Functions:            Functions{Eval: true, Value: true},
		ControlFlow:          ControlFlow{Break: true, Continue: true, Handle: true},
		NegativeIndexing:     true,
		Argv:                 true,
		Yeet:                 true,
		Use:                  true,
		System:               true,
		Xsrand:               true,
		Xreverse:             true,
		Xrange:               true,
		StringInterpolation:  true,
	}
	return o
}
