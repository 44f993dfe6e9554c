// Command knight is the reference CLI for the Knight bytecode virtual
// machine: it compiles and runs a Knight program given either with -e
// or read from a file, with flags to dial compliance and extensions.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/knightlang/knight-vm/pkg/compiler"
	"github.com/knightlang/knight-vm/pkg/environment"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
	"github.com/knightlang/knight-vm/pkg/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("knight", flag.ContinueOnError)
	expr := fs.String("e", "", "evaluate SOURCE directly")
	file := fs.String("f", "", "evaluate the contents of FILE")
	strict := fs.Bool("strict", false, "enable every compliance check")
	extAll := fs.Bool("ext-all", false, "enable every extension")
	disassemble := fs.Bool("disassemble", false, "print the compiled bytecode instead of running it")
	trace := fs.Bool("trace", false, "print each executed instruction to stderr")
	stacktrace := fs.Bool("stacktrace", false, "decorate runtime errors with a call-stack trace")
	repl := fs.Bool("repl", false, "start an interactive read-eval-print loop")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := options.Options{}
	if *strict {
		opts = opts.Strict()
	}
	if *extAll {
		opts = opts.AllExtensions()
	}
	opts.QoL.Stacktrace = *stacktrace || *strict
	opts.Embedded.DontExitWhenQuitting = true

	switch {
	case *repl:
		return runRepl(opts, *trace)
	case *expr != "":
		return execSource(opts, []byte(*expr), *disassemble, *trace)
	case *file != "":
		src, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return execSource(opts, src, *disassemble, *trace)
	default:
		fmt.Fprintln(os.Stderr, "usage: knight [-strict] [-ext-all] [-disassemble] [-trace] [-stacktrace] {-e SOURCE | -f FILE | -repl}")
		return 2
	}
}

func execSource(opts options.Options, src []byte, disassemble, trace bool) int {
	gc := value.NewGc()
	prog, err := compiler.Compile(src, gc, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if disassemble {
		fmt.Print(prog.Disassemble())
		return 0
	}

	env := environment.New(gc, opts, os.Stdin, os.Stdout)
	env.Argv = os.Args[1:]
	if trace {
		env.Trace = os.Stderr
	}

	m := vm.New(prog, env)
	_, err = m.Run()
	if err == nil {
		return 0
	}
	if qe, ok := err.(*vm.QuitError); ok {
		return qe.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func runRepl(opts options.Options, trace bool) int {
	gc := value.NewGc()
	env := environment.New(gc, opts, os.Stdin, os.Stdout)
	if trace {
		env.Trace = os.Stderr
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		prog, err := compiler.Compile([]byte(line), gc, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Print("> ")
			continue
		}
		m := vm.New(prog, env)
		result, err := m.Run()
		switch e := err.(type) {
		case nil:
			fmt.Println(result.Repr())
		case *vm.QuitError:
			return e.Code
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Print("> ")
	}
	return 0
}
