package distribution

import (
	"fmt"
	"os"
	"strings"
)

// Loader resolves distribution specs to parsed Dists, caching the ones
// backed by a .dist file on disk so repeat requests for the same root
// don't reparse it. Non-file specs (empty, "Joint", predefined families)
// are cheap to parse and bypass the cache entirely.
type Loader struct {
	cache DistCache
}

// NewLoader wraps cache in a Loader. A nil cache disables caching — every
// call to Load reparses from disk.
func NewLoader(cache DistCache) *Loader {
	return &Loader{cache: cache}
}

// Load parses spec, consulting the cache for .dist files keyed by path and
// modification time.
func (l *Loader) Load(spec string) (*Dist, error) {
	if l.cache == nil || !isDistFile(spec) {
		return Parse(spec)
	}

	info, err := os.Stat(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot stat %s: %v", ErrInvalidSpec, spec, err)
	}

	key := CacheKey(spec, info.ModTime().UnixNano())
	if d, ok := l.cache.Get(key); ok {
		return d, nil
	}

	d, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, d)
	return d, nil
}

// Close releases the underlying cache's resources, if any.
func (l *Loader) Close() error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Close()
}

func isDistFile(spec string) bool {
	return strings.HasSuffix(spec, ".dist")
}
