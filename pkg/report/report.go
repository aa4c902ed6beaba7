// Package report renders descriptors, call results and host information in
// the output formats the CLI supports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/qubicDB/dynload/pkg/dynlib"
	"github.com/qubicDB/dynload/pkg/platform"
)

// Library is the printable form of a dynlib.Descriptor.
type Library struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Path string `json:"path" yaml:"path" msgpack:"path"`
	OS   string `json:"os" yaml:"os" msgpack:"os"`
}

// FromDescriptor converts a resolved descriptor.
func FromDescriptor(d dynlib.Descriptor) Library {
	return Library{Name: d.Name, Path: d.Path, OS: d.OS.String()}
}

// Result is the outcome of calling one exported function.
type Result struct {
	ID       string    `json:"id" yaml:"id" msgpack:"id"`
	Library  Library   `json:"library" yaml:"library" msgpack:"library"`
	Symbol   string    `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Args     []int32   `json:"args" yaml:"args" msgpack:"args"`
	Value    int32     `json:"value" yaml:"value" msgpack:"value"`
	LoadedAt time.Time `json:"loadedAt" yaml:"loadedAt" msgpack:"loadedAt"`
}

// Text renders the call the way a person would write it: "10 + 20 = 30"
// for add, "symbol(a, b) = v" otherwise.
func (r Result) Text() string {
	if r.Symbol == "add" && len(r.Args) == 2 {
		return fmt.Sprintf("%d + %d = %d", r.Args[0], r.Args[1], r.Value)
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = strconv.FormatInt(int64(a), 10)
	}
	return fmt.Sprintf("%s(%s) = %d", r.Symbol, strings.Join(args, ", "), r.Value)
}

// Write encodes v to w. v is a Result, Library or platform.Info; other
// values are only supported by the structured formats.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case "", "text":
		return writeText(w, v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "msgpack":
		if err := msgpack.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("encoding msgpack: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeText(w io.Writer, v any) error {
	var line string
	switch v := v.(type) {
	case Result:
		line = v.Text()
	case *Result:
		line = v.Text()
	case Library:
		line = v.Path
	case platform.Info:
		line = v.String()
	case fmt.Stringer:
		line = v.String()
	default:
		return fmt.Errorf("no text form for %T", v)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
