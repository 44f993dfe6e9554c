// Package environment hosts everything a running Knight program can
// see outside its own operand stack and variables: standard I/O, the
// random number generator, the host filesystem and shell, and the
// process's exit path. A VM is handed one Environment and never
// touches os.Stdin/os.Stdout or the os/exec package directly — this
// mirrors smog's pattern of threading a single mutable collaborator
// (there, a class registry and debugger) through the interpreter
// rather than reaching for package-level state.
package environment

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/exec"
	"strings"

	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

// Environment is the host surface available to a running program.
type Environment struct {
	Gc   *value.Gc
	Opts options.Options

	in  *bufio.Reader
	out io.Writer

	// Trace, when non-nil, receives a line per executed instruction —
	// the realization of cmd/knight's -trace flag.
	Trace io.Writer

	rng *rand.Rand

	// Argv holds the program's command-line arguments, exposed to
	// Knight programs through the ARGV extension.
	Argv []string
}

// New builds an Environment reading from in and writing to out, seeded
// non-deterministically.
func New(gc *value.Gc, opts options.Options, in io.Reader, out io.Writer) *Environment {
	return &Environment{
		Gc:   gc,
		Opts: opts,
		in:   bufio.NewReader(in),
		out:  out,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Prompt implements PROMPT: reads one line from input, stripping a
// trailing \r\n or \n. At end-of-input, PROMPT yields the empty string
// rather than erroring (Knight treats EOF permissively).
func (e *Environment) Prompt() (value.Value, error) {
	line, err := e.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return value.Value{}, err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return value.NewString(e.Gc, []byte(line), e.Opts)
}

// Output implements OUTPUT: writes s followed by a newline, unless s
// ends with a backslash, in which case the backslash is stripped and
// no newline is written.
func (e *Environment) Output(s string) error {
	if strings.HasSuffix(s, "\\") {
		_, err := fmt.Fprint(e.out, strings.TrimSuffix(s, "\\"))
		return err
	}
	_, err := fmt.Fprintln(e.out, s)
	return err
}

// Random implements RANDOM. When Compliance.LimitRandRange is set, the
// result is restricted to 0..0x7FFF (a conservative positive range);
// otherwise any non-negative int64 may be returned.
func (e *Environment) Random() int64 {
	if e.Opts.Compliance.LimitRandRange {
		return int64(e.rng.IntN(0x8000))
	}
	return int64(e.rng.Uint64() >> 1)
}

// Reseed implements the XSRAND extension.
func (e *Environment) Reseed(seed int64) {
	e.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Shell implements the `$` (SYSTEM) extension: runs cmd through the
// host shell and returns its captured stdout.
func (e *Environment) Shell(cmd string) (string, error) {
	out, err := exec.Command("/bin/sh", "-c", cmd).Output()
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w", err)
	}
	return string(out), nil
}

// ReadFile implements the USE extension: returns the contents of the
// file at path, which USE pushes as a string without evaluating it.
func (e *Environment) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exit terminates the process immediately with code. The VM does not
// call it: QUIT surfaces as a *vm.QuitError returned from Run.
func (e *Environment) Exit(code int) {
	os.Exit(code)
}
