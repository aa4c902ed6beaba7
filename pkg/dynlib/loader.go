// Package dynlib locates a dynamic library by naming convention and loads
// it through the operating system's dynamic loader.
//
// Libraries are expected at
//
//	<dir>/<os family, lowercase>/<prefix><name><extension>
//
// for example build/linux/libexample.so, build/windows/example.dll or
// build/darwin/libexample.dylib.
package dynlib

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/qubicDB/dynload/pkg/platform"
)

// Loader is the operating system's dynamic loader.
type Loader interface {
	// Open maps the library at path into the process.
	Open(path string) (uintptr, error)
	// Sym returns the address of an exported symbol.
	Sym(handle uintptr, name string) (uintptr, error)
	// Close releases a handle returned by Open.
	Close(handle uintptr) error
}

// OSLoader returns the loader backed by the host's dynamic linker.
func OSLoader() Loader {
	return osLoader{}
}

// Descriptor identifies a library file resolved from its logical name.
type Descriptor struct {
	Name string
	Path string
	OS   platform.OSFamily
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Name, d.OS, d.Path)
}

// Resolve builds the conventional path of a library without touching the
// filesystem.
func Resolve(name, dir string, family platform.OSFamily) (Descriptor, error) {
	if err := validateName(name); err != nil {
		return Descriptor{}, err
	}
	filename, err := family.Filename(name)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name: name,
		Path: filepath.Join(dir, family.Dir(), filename),
		OS:   family,
	}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q must not contain path elements", ErrInvalidName, name)
	}
	return nil
}

// DefaultDir returns the directory containing the running executable.
func DefaultDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

type options struct {
	dir       string
	family    platform.OSFamily
	familySet bool
	familyErr error
	loader    Loader
	logger    *log.Logger
}

// Option configures Load.
type Option func(*options)

// WithDir sets the base directory. The default is DefaultDir.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithOS selects the target OS family. The default is the host family.
func WithOS(family platform.OSFamily) Option {
	return func(o *options) {
		o.family = family
		o.familySet = true
		o.familyErr = nil
	}
}

// WithOSName selects the target OS family by name, as accepted by
// platform.Parse. An empty name keeps the host family.
func WithOSName(name string) Option {
	return func(o *options) {
		if name == "" {
			return
		}
		o.family, o.familyErr = platform.Parse(name)
		o.familySet = true
	}
}

// WithLoader replaces the OS dynamic loader.
func WithLoader(l Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLogger sets the destination of progress messages. A nil logger
// silences them.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		o.logger = l
	}
}

// Load resolves the library called name and opens it with the dynamic
// loader. The resolved path must be an existing regular file; the loader is
// never asked to search for it.
func Load(name string, opts ...Option) (*Library, error) {
	o := options{
		loader: OSLoader(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateName(name); err != nil {
		return nil, err
	}

	if o.familyErr != nil {
		return nil, o.familyErr
	}
	if !o.familySet {
		f, err := platform.Host()
		if err != nil {
			return nil, err
		}
		o.family = f
	}
	if !o.family.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, o.family)
	}
	o.logger.Printf("Target OS: %s", o.family)

	if o.dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		o.dir = dir
	}

	desc, err := Resolve(name, o.dir, o.family)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(desc.Path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, desc.Path)
	}

	o.logger.Printf("Loading library: %s", desc.Path)
	handle, err := o.loader.Open(desc.Path)
	if err == nil && handle == 0 {
		err = fmt.Errorf("loader returned a nil handle")
	}
	if err != nil {
		if hint := Diagnose(desc.Path).Mismatch(); hint != "" {
			return nil, fmt.Errorf("%w %s: %w (%s)", ErrLoadError, desc.Path, err, hint)
		}
		return nil, fmt.Errorf("%w %s: %w", ErrLoadError, desc.Path, err)
	}
	o.logger.Println("Library loaded")

	return &Library{
		desc:   desc,
		handle: handle,
		loader: o.loader,
	}, nil
}
