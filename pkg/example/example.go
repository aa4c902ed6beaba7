// Package example binds the exported symbols of the example library,
// whose C declaration is
//
//	int add(int a, int b);
package example

import (
	"fmt"

	"github.com/qubicDB/dynload/pkg/dynlib"
)

// LibraryName is the logical name of the example library.
const LibraryName = "example"

// AddSymbol is the exported name of the add function.
const AddSymbol = "add"

// AddFunc is the Go signature of add.
type AddFunc func(a, b int32) int32

// BindAdd declares add(int32, int32) int32 on lib.
func BindAdd(lib *dynlib.Library) (AddFunc, error) {
	var add func(a, b int32) int32
	if err := lib.Bind(&add, AddSymbol); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", AddSymbol, err)
	}
	return add, nil
}
