// Package content holds the URI→bytes map a host builds for the
// "from-content" morphing path: when a host has already fetched a page's
// sub-resources itself (e.g. from an upstream origin, or from its own
// prefetch pass over GetHTMLRequiredFiles/GetRequiredCSSFiles), it hands
// the morphing engine this map by reference instead of a filesystem root.
package content

import "sync"

// Map is a concurrency-safe URI→bytes map, keyed by the same resolved-URI
// convention pathresolve.NormalizeURI produces.
type Map struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Map ready for use.
func New() *Map {
	return &Map{data: make(map[string][]byte)}
}

// Set stores data under uri, replacing anything already there.
func (m *Map) Set(uri string, data []byte) {
	m.mu.Lock()
	m.data[uri] = data
	m.mu.Unlock()
}

// Get returns the bytes stored under uri, and whether uri was present.
func (m *Map) Get(uri string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[uri]
	return data, ok
}

// Delete removes uri from the map, a no-op if it isn't present.
func (m *Map) Delete(uri string) {
	m.mu.Lock()
	delete(m.data, uri)
	m.mu.Unlock()
}

// Len returns the number of URIs currently stored.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Reader adapts Get to the domwalk.ContentReader function signature, so a
// Map can be passed directly to domwalk.EnumerateObjectsFromContent /
// morph.MorphHTMLFromContent.
func (m *Map) Reader() func(uri string) ([]byte, bool) {
	return m.Get
}
