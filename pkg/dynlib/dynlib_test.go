package dynlib_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/qubicDB/dynload/pkg/dynlib"
	"github.com/qubicDB/dynload/pkg/example"
	"github.com/qubicDB/dynload/pkg/example/exampletest"
	"github.com/qubicDB/dynload/pkg/platform"
)

func TestLoad_ExampleAdd(t *testing.T) {
	dir := t.TempDir()
	exampletest.Build(t, dir)

	lib, err := dynlib.Load(example.LibraryName, dynlib.WithDir(dir), dynlib.WithLogger(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer lib.Close()

	add, err := example.BindAdd(lib)
	if err != nil {
		t.Fatal(err)
	}
	if got := add(10, 20); got != 30 {
		t.Fatalf("add(10, 20) = %d, want 30", got)
	}
	if got := add(-7, 2); got != -5 {
		t.Fatalf("add(-7, 2) = %d, want -5", got)
	}
}

func TestLoad_Twice(t *testing.T) {
	dir := t.TempDir()
	exampletest.Build(t, dir)

	first, err := dynlib.Load(example.LibraryName, dynlib.WithDir(dir), dynlib.WithLogger(nil))
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	defer first.Close()
	second, err := dynlib.Load(example.LibraryName, dynlib.WithDir(dir), dynlib.WithLogger(nil))
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	defer second.Close()

	for i, lib := range []*dynlib.Library{first, second} {
		add, err := example.BindAdd(lib)
		if err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
		if got := add(10, 20); got != 30 {
			t.Fatalf("handle %d: add(10, 20) = %d, want 30", i, got)
		}
	}
}

func TestInt32Func(t *testing.T) {
	dir := t.TempDir()
	exampletest.Build(t, dir)

	lib, err := dynlib.Load(example.LibraryName, dynlib.WithDir(dir), dynlib.WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close()

	tests := []struct {
		symbol string
		args   []int32
		want   int32
	}{
		{"answer", nil, 42},
		{"negate", []int32{5}, -5},
		{"add", []int32{10, 20}, 30},
	}
	for _, tt := range tests {
		fn, err := lib.Int32Func(tt.symbol, len(tt.args))
		if err != nil {
			t.Fatalf("Int32Func(%s): %v", tt.symbol, err)
		}
		if got := fn(tt.args...); got != tt.want {
			t.Errorf("%s%v = %d, want %d", tt.symbol, tt.args, got, tt.want)
		}
	}

	if _, err := lib.Int32Func("missing", 0); !errors.Is(err, dynlib.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestLoad_InvalidLibraryFile(t *testing.T) {
	family, err := platform.Host()
	if err != nil {
		t.Skipf("host not supported: %v", err)
	}
	dir := t.TempDir()
	filename, err := family.Filename("broken")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, family.Dir(), filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("this is not a shared object"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = dynlib.Load("broken", dynlib.WithDir(dir), dynlib.WithLogger(nil))
	if !errors.Is(err, dynlib.ErrLoadError) {
		t.Fatalf("expected ErrLoadError, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming %s, got %v", path, err)
	}
	if !strings.Contains(err.Error(), "not a valid") {
		t.Errorf("expected a format hint, got %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	obj := dynlib.Diagnose(exe)
	if obj.Format != dynlib.HostFormat() {
		t.Fatalf("Diagnose(test binary).Format = %q, want %q", obj.Format, dynlib.HostFormat())
	}
	found := false
	for _, a := range obj.Archs {
		if a == runtime.GOARCH {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in %v", runtime.GOARCH, obj.Archs)
	}
	if hint := obj.Mismatch(); hint != "" {
		t.Errorf("unexpected mismatch for the test binary: %s", hint)
	}

	garbage := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(garbage, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	obj = dynlib.Diagnose(garbage)
	if obj.Format != dynlib.FormatUnknown {
		t.Fatalf("expected unknown format, got %q", obj.Format)
	}
	if obj.Mismatch() == "" {
		t.Error("expected a mismatch description for garbage")
	}
}
