package dynlib

import (
	"errors"

	"github.com/qubicDB/dynload/pkg/platform"
)

var (
	ErrInvalidName         = errors.New("invalid library name")
	ErrUnsupportedPlatform = platform.ErrUnsupportedPlatform
	ErrLibraryNotFound     = errors.New("library not found")
	ErrLoadError           = errors.New("failed to load library")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrInvalidBinding      = errors.New("invalid function binding")
	ErrClosed              = errors.New("library is closed")
)
