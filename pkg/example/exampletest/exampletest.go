// Package exampletest compiles the example C library for tests that need
// a real dynamic library on disk.
package exampletest

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/qubicDB/dynload/pkg/example"
	"github.com/qubicDB/dynload/pkg/platform"
)

var (
	//go:embed testdata/example.c
	source []byte
	//go:embed testdata/example.h
	header []byte
)

// Compiler returns the C compiler used by Build, or "" if none is on PATH.
func Compiler() string {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	path, err := exec.LookPath(cc)
	if err != nil {
		return ""
	}
	return path
}

// Compile builds the example library with cc into
// <dir>/<host os family>/<conventional filename> and returns that path.
func Compile(cc, dir string) (string, error) {
	family, err := platform.Host()
	if err != nil {
		return "", err
	}
	filename, err := family.Filename(example.LibraryName)
	if err != nil {
		return "", err
	}

	src, err := os.MkdirTemp("", "exampletest")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(src)
	if err := os.WriteFile(filepath.Join(src, "example.c"), source, 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(src, "example.h"), header, 0o644); err != nil {
		return "", err
	}

	out := filepath.Join(dir, family.Dir())
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}
	lib := filepath.Join(out, filename)

	args := []string{"-shared", "-o", lib, filepath.Join(src, "example.c")}
	if runtime.GOOS != "windows" {
		args = append([]string{"-fPIC"}, args...)
	}
	if b, err := exec.Command(cc, args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w\n%s", cc, err, b)
	}
	return lib, nil
}

// Build is Compile for tests. The test is skipped when no C compiler is
// available or the library cannot be compiled for the host.
func Build(tb testing.TB, dir string) string {
	tb.Helper()

	cc := Compiler()
	if cc == "" {
		tb.Skip("no C compiler available")
	}
	lib, err := Compile(cc, dir)
	if err != nil {
		tb.Skipf("failed to compile example library: %v", err)
	}
	return lib
}
