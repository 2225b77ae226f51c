package nearest

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/radius"
	"github.com/viant/nearstop/store"
)

// Loader produces the index of a catalog entry.
type Loader func(ctx context.Context) (index.Index, error)

// loaded is a built index with its radius companion.
type loaded struct {
	idx    index.Index
	within *radius.Index
}

type entry struct {
	mu         sync.Mutex
	loader     Loader
	value      *loaded
	building   bool
	generation uint64
	cond       *sync.Cond
}

func newEntry(loader Loader) *entry {
	e := &entry{loader: loader}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// get returns the cached index, running the loader at most once at a time.
// A load finished after an invalidate is discarded and run again.
func (e *entry) get(ctx context.Context) (*loaded, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		for e.building {
			e.cond.Wait()
		}
		if e.value != nil {
			return e.value, nil
		}
		e.building = true
		generation := e.generation
		loader := e.loader
		e.mu.Unlock()

		value, err := load(ctx, loader)

		e.mu.Lock()
		e.building = false
		e.cond.Broadcast()
		if err != nil {
			return nil, err
		}
		if generation == e.generation {
			e.value = value
			return value, nil
		}
	}
}

func (e *entry) invalidate() {
	e.mu.Lock()
	e.value = nil
	e.generation++
	e.mu.Unlock()
}

func load(ctx context.Context, loader Loader) (*loaded, error) {
	idx, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	within, err := radius.New(idx.Candidates())
	if err != nil {
		return nil, err
	}
	return &loaded{idx: idx, within: within}, nil
}

var catalog = struct {
	mu     sync.RWMutex
	byName map[string]*entry
}{byName: make(map[string]*entry)}

// Attach makes a built index available to virtual tables under name.
func Attach(name string, idx index.Index) {
	AttachLoader(name, func(context.Context) (index.Index, error) { return idx, nil })
}

// AttachLoader registers a loader run on the first query against name and
// again after Invalidate.
func AttachLoader(name string, loader Loader) {
	catalog.mu.Lock()
	catalog.byName[name] = newEntry(loader)
	catalog.mu.Unlock()
}

// AttachStore serves the index stored under name in s.
func AttachStore(name string, s store.Store, opts index.Options) {
	AttachLoader(name, func(ctx context.Context) (index.Index, error) {
		return s.LoadIndex(ctx, name, opts)
	})
}

// Detach removes name from the catalog.
func Detach(name string) {
	catalog.mu.Lock()
	delete(catalog.byName, name)
	catalog.mu.Unlock()
}

// Invalidate drops the cached index of name and reports whether name is attached.
func Invalidate(name string) bool {
	catalog.mu.RLock()
	e := catalog.byName[name]
	catalog.mu.RUnlock()
	if e == nil {
		return false
	}
	e.invalidate()
	return true
}

func lookup(ctx context.Context, name string) (*loaded, error) {
	catalog.mu.RLock()
	e := catalog.byName[name]
	catalog.mu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("nearest: no index attached as %q", name)
	}
	return e.get(ctx)
}

// invalidateFunc implements SQL scalar nearest_invalidate(name TEXT) -> INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return int64(0), nil
	}
	name, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	if Invalidate(name) {
		return int64(1), nil
	}
	return int64(0), nil
}
