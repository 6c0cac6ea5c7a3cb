// Package runtimeasset embeds the small C support files fxc links its
// compiled output against (runtime.c) and shells out through (loader.c),
// and knows how to materialise and — for the loader — build them inside a
// run's temporary directory. Everything here is external-collaborator
// glue, not core compiler logic, per SPEC_FULL.md §1's scoping note.
package runtimeasset

import (
	_ "embed"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"fxc.dev/fxc/pkg/fxerr"
)

//go:embed runtime.c
var runtimeSource []byte

//go:embed loader.c
var loaderSource []byte

// WriteTo materialises runtime.c inside dir and returns its path, ready to
// be passed to the C compiler alongside the generated assembly.
func WriteTo(dir string) (string, error) {
	path := filepath.Join(dir, "fxc-runtime.c")
	if err := os.WriteFile(path, runtimeSource, 0o644); err != nil {
		return "", &fxerr.Io{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// BuildLoader materialises loader.c inside dir and compiles it with cc,
// always passing -ldl, which glibc hosts need for dlopen (on musl and
// Darwin dlopen lives in libc itself).
func BuildLoader(dir, cc string) (string, error) {
	srcPath := filepath.Join(dir, "fxc-loader.c")
	if err := os.WriteFile(srcPath, loaderSource, 0o644); err != nil {
		return "", &fxerr.Io{Op: "write", Path: srcPath, Err: err}
	}

	binPath := filepath.Join(dir, "fxc-loader")
	cmd := exec.Command(cc, "-o", binPath, srcPath, "-ldl")
	if out, err := cmd.CombinedOutput(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return "", &fxerr.Toolchain{Command: strings.Join(cmd.Args, " ") + "\n" + string(out), ExitCode: exitCode}
	}
	return binPath, nil
}
