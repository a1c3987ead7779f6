package symbols

import (
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// Demangler caches demangled names. The zero value is ready to use and is
// safe for concurrent use.
type Demangler struct {
	mu    sync.RWMutex
	cache map[string]string
	hits  int
}

// Demangle returns the readable form of a C++ or Rust symbol, or name
// itself when it is not mangled.
func (d *Demangler) Demangle(name string) string {
	if name == "" {
		return ""
	}
	d.mu.RLock()
	out, ok := d.cache[name]
	d.mu.RUnlock()
	if ok {
		d.mu.Lock()
		d.hits++
		d.mu.Unlock()
		return out
	}

	out = demangle.Filter(name, demangle.NoClones)

	d.mu.Lock()
	if d.cache == nil {
		d.cache = make(map[string]string)
	}
	d.cache[name] = out
	d.mu.Unlock()
	return out
}

// Stats reports the number of cached names and cache hits.
func (d *Demangler) Stats() (names, hits int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache), d.hits
}
