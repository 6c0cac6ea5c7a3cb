// Command fxc is the ahead-of-time compiler's command-line front end: flag
// parsing and wiring only, per SPEC_FULL.md §1's scoping note that the
// driver and its surface are external collaborators, not core logic.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"fxc.dev/fxc/pkg/driver"
)

var usage = strings.ReplaceAll(`
fxc compiles a small Lisp-family surface language to a standalone x86-64
executable, or, in evaluate mode, compiles a single expression to a shared
object and runs it immediately.

  fxc -c <path> [-o <output>] [-d] [-s]   compile a source file
  fxc -e <expression> [-d] [-s]           evaluate a source expression
  fxc -h                                  show this message
`, "\n", "\n")

var Description = "Ahead-of-time compiler for a small Lisp-family surface language, targeting x86-64."

// App models the same long-option surface the short flags below translate
// into. teris-io/cli, like every cmd/* binary in the project this was
// adapted from, expects long "--option" flags; fxc's wire-format flags
// (§6) are short single-dash switches instead, so main() rewrites argv
// before handing it to App.Run rather than asking the library to parse
// short flags it was not built for.
var App = cli.New(Description).
	WithOption(cli.NewOption("compile", "Source file to compile").WithType(cli.TypeString)).
	WithOption(cli.NewOption("evaluate", "Source expression to evaluate immediately").WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "Executable output path (compile mode only)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("dump", "Dump the generated assembly to standard output").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("keep", "Keep temporary files after the run").WithType(cli.TypeBool)).
	WithAction(Handler)

// Handler builds driver.Options from the parsed flags and runs one
// compile-or-evaluate invocation, reporting any error the way every cmd/*
// binary here does: a one-line message to stderr, a non-zero return.
func Handler(args []string, options map[string]string) int {
	compilePath, isCompile := options["compile"]
	evalExpr, isEvaluate := options["evaluate"]

	if isCompile == isEvaluate { // both or neither given
		fmt.Fprintln(os.Stderr, "fxc: exactly one of -c or -e is required")
		return 1
	}

	_, dump := options["dump"]
	_, keep := options["keep"]

	opts := driver.Options{
		Output:    options["output"],
		DumpAsm:   dump,
		KeepTemps: keep,
	}
	if isCompile {
		opts.Mode, opts.Input = driver.ModeCompile, compilePath
	} else {
		opts.Mode, opts.Input = driver.ModeEvaluate, evalExpr
	}

	if err := driver.New().Run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fxc: %v\n", err)
		return 1
	}
	return 0
}

// shortFlags maps each wire-format short flag to the long option name
// App.Run understands. -h is intercepted before this translation: it has
// no long-option equivalent above and always exits 0 on its own (§6).
var shortFlags = map[string]string{
	"-c": "--compile",
	"-e": "--evaluate",
	"-o": "--output",
	"-d": "--dump",
	"-s": "--keep",
}

// valueFlags lists which short flags above consume the following argv
// element as their value, rather than being plain boolean switches.
var valueFlags = map[string]bool{"-c": true, "-e": true, "-o": true}

func translateArgs(argv []string) []string {
	out := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		long, known := shortFlags[argv[i]]
		if !known {
			out = append(out, argv[i])
			continue
		}
		out = append(out, long)
		if valueFlags[argv[i]] && i+1 < len(argv) {
			i++
			out = append(out, argv[i])
		}
	}
	return out
}

func main() {
	for _, a := range os.Args[1:] {
		if a == "-h" {
			fmt.Println(usage)
			os.Exit(0)
		}
	}

	rewritten := append([]string{os.Args[0]}, translateArgs(os.Args[1:])...)
	os.Exit(App.Run(rewritten, os.Stdout))
}
