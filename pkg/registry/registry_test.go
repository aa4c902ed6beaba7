package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/qubicDB/dynload/pkg/dynlib"
	"github.com/qubicDB/dynload/pkg/platform"
)

type fakeHandle struct {
	name     string
	closeErr error
	closes   *[]string
}

func (f *fakeHandle) Descriptor() dynlib.Descriptor {
	return dynlib.Descriptor{Name: f.name, Path: "build/linux/lib" + f.name + ".so", OS: platform.Linux}
}

func (f *fakeHandle) Close() error {
	*f.closes = append(*f.closes, f.name)
	return f.closeErr
}

func newTestRegistry() *Registry {
	r := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return r
}

func TestTrack(t *testing.T) {
	r := newTestRegistry()
	var closes []string

	e := r.Track(&fakeHandle{name: "example", closes: &closes})
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Fatalf("expected a UUID id, got %q: %v", e.ID, err)
	}
	if list := r.List(); len(list) != 1 || list[0] != e {
		t.Fatalf("List() = %v, want [%s]", list, e.ID)
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
}

func TestTrack_SameLibraryTwice(t *testing.T) {
	r := newTestRegistry()
	var closes []string

	a := r.Track(&fakeHandle{name: "example", closes: &closes})
	b := r.Track(&fakeHandle{name: "example", closes: &closes})
	if a.ID == b.ID {
		t.Fatal("expected distinct IDs for separate loads")
	}
	if r.Count() != 2 {
		t.Fatalf("Count = %d, want 2", r.Count())
	}
}

func TestList_Ordered(t *testing.T) {
	r := newTestRegistry()
	var closes []string

	first := r.Track(&fakeHandle{name: "a", closes: &closes})
	second := r.Track(&fakeHandle{name: "b", closes: &closes})
	third := r.Track(&fakeHandle{name: "c", closes: &closes})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	for i, want := range []*Entry{first, second, third} {
		if list[i] != want {
			t.Errorf("List[%d] = %s, want %s", i, list[i].ID, want.ID)
		}
	}
}

func TestCloseAll(t *testing.T) {
	r := newTestRegistry()
	var closes []string
	boom := errors.New("boom")

	r.Track(&fakeHandle{name: "a", closes: &closes})
	r.Track(&fakeHandle{name: "b", closes: &closes, closeErr: boom})
	r.Track(&fakeHandle{name: "c", closes: &closes})

	err := r.CloseAll()
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined close error, got %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(closes) != len(want) {
		t.Fatalf("closes = %v, want %v", closes, want)
	}
	for i := range want {
		if closes[i] != want[i] {
			t.Fatalf("closes = %v, want %v", closes, want)
		}
	}
	if r.Count() != 0 {
		t.Fatalf("Count = %d after CloseAll", r.Count())
	}
	if err := r.CloseAll(); err != nil {
		t.Fatalf("CloseAll on empty registry: %v", err)
	}
}
