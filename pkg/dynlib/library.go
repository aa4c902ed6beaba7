package dynlib

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// Library is a handle to a loaded dynamic library. It stays mapped until
// Close is called or the process exits.
type Library struct {
	desc   Descriptor
	handle uintptr
	loader Loader

	mu     sync.Mutex
	closed bool
}

// Descriptor returns the resolved name, path and OS family.
func (l *Library) Descriptor() Descriptor {
	return l.desc
}

// Lookup returns the address of an exported symbol.
func (l *Library) Lookup(symbol string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, fmt.Errorf("%w: %s", ErrClosed, l.desc.Path)
	}
	addr, err := l.loader.Sym(l.handle, symbol)
	if err == nil && addr == 0 {
		err = fmt.Errorf("nil address")
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %s: %w", ErrSymbolNotFound, symbol, l.desc.Path, err)
	}
	return addr, nil
}

// Bind looks up symbol and makes fptr, a pointer to a Go func variable,
// call it with the C calling convention. The func type is the declared
// signature of the symbol; a mismatch is not detectable here.
//
//	var add func(a, b int32) int32
//	err := lib.Bind(&add, "add")
func (l *Library) Bind(fptr any, symbol string) (err error) {
	addr, err := l.Lookup(symbol)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidBinding, symbol, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}

// Close releases the handle. Functions bound from the library must not be
// called afterwards. Close is idempotent.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.loader.Close(l.handle); err != nil {
		return fmt.Errorf("failed to close %s: %w", l.desc.Path, err)
	}
	return nil
}
