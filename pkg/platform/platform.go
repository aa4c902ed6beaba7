// Package platform describes the operating system families a dynamic
// library can be built for and the file naming convention each one uses.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned for any OS family outside the closed
// set of Windows, Linux and MacOS.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OSFamily is the target operating system of a dynamic library.
type OSFamily uint8

const (
	Unknown OSFamily = iota
	Windows
	Linux
	MacOS
)

type convention struct {
	name   string
	prefix string
	ext    string
}

var conventions = map[OSFamily]convention{
	Windows: {name: "Windows", prefix: "", ext: ".dll"},
	Linux:   {name: "Linux", prefix: "lib", ext: ".so"},
	MacOS:   {name: "Darwin", prefix: "lib", ext: ".dylib"},
}

var aliases = map[string]OSFamily{
	"windows": Windows,
	"linux":   Linux,
	"darwin":  MacOS,
	"macos":   MacOS,
}

// Families returns the supported OS families in a stable order.
func Families() []OSFamily {
	return []OSFamily{Windows, Linux, MacOS}
}

// Parse maps an OS name such as "Linux", "darwin" or "macos" to its family.
func Parse(s string) (OSFamily, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
}

// Host returns the family of the running operating system.
func Host() (OSFamily, error) {
	return Parse(runtime.GOOS)
}

// Supported reports whether f is one of the known families.
func (f OSFamily) Supported() bool {
	_, ok := conventions[f]
	return ok
}

func (f OSFamily) String() string {
	if c, ok := conventions[f]; ok {
		return c.name
	}
	return fmt.Sprintf("OSFamily(%d)", uint8(f))
}

// Dir is the lowercase directory name libraries of this family live under.
func (f OSFamily) Dir() string {
	return strings.ToLower(f.String())
}

// Filename applies the family prefix and extension to a bare library name.
func (f OSFamily) Filename(name string) (string, error) {
	c, ok := conventions[f]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, f)
	}
	return c.prefix + name + c.ext, nil
}

// MarshalText implements encoding.TextMarshaler.
func (f OSFamily) MarshalText() ([]byte, error) {
	if !f.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, f)
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *OSFamily) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
