//go:build !windows

package dynlib

import "github.com/ebitengine/purego"

type osLoader struct{}

func (osLoader) Open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func (osLoader) Sym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func (osLoader) Close(handle uintptr) error {
	return purego.Dlclose(handle)
}
