// Package registry keeps track of the dynamic libraries a process has
// opened so they can be listed and released before exit. It is not a
// cache: every Track call records a separate handle.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qubicDB/dynload/pkg/dynlib"
)

// Handle is the part of *dynlib.Library the registry needs.
type Handle interface {
	Descriptor() dynlib.Descriptor
	Close() error
}

// Entry is a tracked library handle.
type Entry struct {
	ID       string
	Library  Handle
	LoadedAt time.Time
}

// Registry tracks open library handles by ID.
type Registry struct {
	entries map[string]*Entry
	mu      sync.RWMutex
	now     func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Track records lib under a fresh UUID.
func (r *Registry) Track(lib Handle) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &Entry{
		ID:       uuid.NewString(),
		Library:  lib,
		LoadedAt: r.now(),
	}
	r.entries[entry.ID] = entry
	return entry
}

// List returns all tracked entries, oldest first.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LoadedAt.Equal(result[j].LoadedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].LoadedAt.Before(result[j].LoadedAt)
	})
	return result
}

// Count returns the number of tracked handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll releases every tracked handle, newest first, and returns the
// joined close errors.
func (r *Registry) CloseAll() error {
	entries := r.List()

	r.mu.Lock()
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := entries[i].Library.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
