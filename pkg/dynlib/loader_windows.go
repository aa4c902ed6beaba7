//go:build windows

package dynlib

import "golang.org/x/sys/windows"

type osLoader struct{}

func (osLoader) Open(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	return uintptr(h), err
}

func (osLoader) Sym(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func (osLoader) Close(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
