// Package driver is the thin orchestration layer SPEC_FULL.md §4.6
// describes: read source, parse, generate assembly, invoke the external C
// toolchain, and either leave a standalone executable behind or load the
// freshly built shared object and call into it. None of this is part of
// the compiler's core; it exists to make the core runnable.
package driver

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"fxc.dev/fxc/pkg/codegen"
	"fxc.dev/fxc/pkg/fxerr"
	"fxc.dev/fxc/pkg/parser"
	"fxc.dev/fxc/pkg/runtimeasset"
	"fxc.dev/fxc/pkg/utils"
)

// Mode selects what a Driver.Run invocation produces.
type Mode int

const (
	// ModeCompile reads a source file and links a standalone executable.
	ModeCompile Mode = iota
	// ModeEvaluate compiles a source string to a shared object, loads it,
	// and calls its runtime_startup entry point in a child loader process.
	ModeEvaluate
)

// Options mirrors the CLI surface in SPEC_FULL.md §6.
type Options struct {
	Mode      Mode
	Input     string // source path (ModeCompile) or source text (ModeEvaluate)
	Output    string // executable path, ModeCompile only; defaults per §6
	DumpAsm   bool   // -d
	KeepTemps bool   // -s
}

// Driver runs one compile-or-evaluate invocation.
type Driver struct {
	// cc is the external C compiler/linker to shell out to; resolved from
	// $CC, falling back to "cc", matching the original's hardcoded but
	// overridable toolchain invocation.
	cc string
}

// New returns a Driver ready to Run.
func New() *Driver {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	return &Driver{cc: cc}
}

// Run executes one invocation end to end, returning the first error
// encountered, already wrapped in the taxonomy type from pkg/fxerr that
// names it (§7).
func (d *Driver) Run(opts Options, stdout io.Writer) error {
	source, err := d.readSource(opts)
	if err != nil {
		return err
	}

	p := parser.NewParser(strings.NewReader(source))
	program, err := p.Parse()
	if err != nil {
		return err
	}

	tempDir := resolveTempDir()
	// Temp files are tracked on a LIFO stack and unwound in reverse of
	// creation order on any exit path that doesn't keep them — the same
	// discipline the original's single mkstemps+unlink pairing enforced by
	// construction, generalised here because a run may create more than one
	// (assembly text, then an object/executable/shared-object).
	temps := utils.NewStack[string]()
	defer func() {
		if opts.KeepTemps {
			return
		}
		for temps.Count() > 0 {
			path, _ := temps.Pop()
			os.Remove(path)
		}
	}()

	asmPath, err := writeTempFile(tempDir, "fxc-*.s")
	if err != nil {
		return err
	}
	temps.Push(asmPath)

	asmFile, err := os.Create(asmPath)
	if err != nil {
		return &fxerr.Io{Op: "create", Path: asmPath, Err: err}
	}

	platform := codegen.Linux
	if runtime.GOOS == "darwin" {
		platform = codegen.Darwin
	}
	gen := codegen.NewGenerator(asmFile, platform)
	genErr := gen.Generate(program)
	asmFile.Close()
	if genErr != nil {
		return genErr
	}

	if opts.DumpAsm {
		text, err := os.ReadFile(asmPath)
		if err == nil {
			fmt.Fprint(stdout, string(text))
		}
	}

	runtimePath, err := runtimeasset.WriteTo(tempDir)
	if err != nil {
		return err
	}
	temps.Push(runtimePath)

	switch opts.Mode {
	case ModeCompile:
		return d.link(opts, asmPath, runtimePath, &temps)
	case ModeEvaluate:
		return d.loadAndCall(tempDir, asmPath, runtimePath, &temps)
	default:
		panic("driver: unknown Mode")
	}
}

func (d *Driver) readSource(opts Options) (string, error) {
	if opts.Mode == ModeEvaluate {
		return opts.Input, nil
	}
	content, err := os.ReadFile(opts.Input)
	if err != nil {
		return "", &fxerr.Io{Op: "read", Path: opts.Input, Err: err}
	}
	return string(content), nil
}

// link assembles and links a standalone executable.
func (d *Driver) link(opts Options, asmPath, runtimePath string, temps *utils.Stack[string]) error {
	output := opts.Output
	if output == "" {
		output = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input))
	}

	cmd := exec.Command(d.cc, "-o", output, asmPath, runtimePath)
	if out, err := cmd.CombinedOutput(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return &fxerr.Toolchain{Command: strings.Join(cmd.Args, " ") + "\n" + string(out), ExitCode: exitCode}
	}
	return nil
}

// loadAndCall assembles a position-independent shared object and runs it
// inside a small loader child process. The standard library's plugin
// package cannot be used here: it only loads a shared object produced by
// the same Go toolchain and build it was invoked from, and this shared
// object is produced by the external C toolchain. Instead fxc embeds and
// builds a tiny C loader shim (see pkg/runtimeasset) that dlopen()s the
// path and calls runtime_startup, mirroring the original's in-process
// dlopen/dlsym path at arm's length through a subprocess.
func (d *Driver) loadAndCall(tempDir, asmPath, runtimePath string, temps *utils.Stack[string]) error {
	soPath, err := writeTempFile(tempDir, "fxc-*.so")
	if err != nil {
		return err
	}
	temps.Push(soPath)

	cmd := exec.Command(d.cc, "-shared", "-fPIC", "-o", soPath, asmPath, runtimePath)
	if out, err := cmd.CombinedOutput(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return &fxerr.Toolchain{Command: strings.Join(cmd.Args, " ") + "\n" + string(out), ExitCode: exitCode}
	}

	// BuildLoader materialises its C source as fxc-loader.c in tempDir.
	temps.Push(filepath.Join(tempDir, "fxc-loader.c"))
	loaderBin, err := runtimeasset.BuildLoader(tempDir, d.cc)
	if err != nil {
		return err
	}
	temps.Push(loaderBin)

	run := exec.Command(loaderBin, soPath)
	run.Stdout = os.Stdout
	run.Stderr = os.Stderr
	if err := run.Run(); err != nil {
		return &fxerr.Loader{Path: soPath, Err: err}
	}
	return nil
}

// resolveTempDir consults TMPDIR, TMP, TEMPFILE, TEMP in that order, first
// non-empty wins, falling back to /tmp — the exact lookup order the
// original's find_system_tmpdir used.
func resolveTempDir() string {
	for _, name := range []string{"TMPDIR", "TMP", "TEMPFILE", "TEMP"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return "/tmp/"
}

func writeTempFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", &fxerr.Io{Op: "create temp file", Path: dir, Err: err}
	}
	path := f.Name()
	f.Close()
	return path, nil
}
