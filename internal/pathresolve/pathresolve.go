// Package pathresolve maps a URI referenced from an HTML document to an
// absolute filesystem path under a configured document root, the way a
// web server resolves a relative link against the page that referenced it.
package pathresolve

import (
	"path"
	"strings"
)

// Resolve maps relative (a URL found in HTML — an href, src, or CSS
// url(...) target) to an absolute filesystem path under root.
//
// pageURI is the absolute-path URI of the page that referenced relative;
// a relative (non-absolute-path) URL is resolved against pageURI's
// directory first. alias is the number of leading characters the page's
// own URI-space reserves for an alias prefix that isn't part of the real
// document tree — resolve fails if the resolved path doesn't share that
// prefix with pageURI, since that means the reference crossed into a
// different alias's namespace.
//
// Resolve returns ("", false) for an absolute URL (http:// or https://,
// meaning a different server), or for a cross-alias reference.
func Resolve(root, relative, pageURI string, alias int) (string, bool) {
	if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
		return "", false
	}

	fsRelative := relative
	if !strings.HasPrefix(fsRelative, "/") {
		base := path.Dir(pageURI)
		if !strings.HasSuffix(base, "/") {
			fsRelative = "/" + fsRelative
		}
		fsRelative = base + fsRelative
	}

	absolute := normalize(fsRelative)

	if alias > len(pageURI) || alias > len(absolute) {
		return "", false
	}
	if pageURI[:alias] != absolute[:alias] {
		return "", false
	}
	absolute = absolute[alias:]

	return root + absolute, true
}

// NormalizeURI resolves relative against the directory of pageURI and
// collapses "." and ".." components, the same way Resolve does, but
// without the alias/root filesystem step. It's for a host that looks up
// sub-resources by URI in a content map rather than on disk — the map is
// keyed by resolved URI, not by filesystem path. Returns ("", false) for
// an absolute URL (a different server).
func NormalizeURI(relative, pageURI string) (string, bool) {
	if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
		return "", false
	}

	fsRelative := relative
	if !strings.HasPrefix(fsRelative, "/") {
		base := path.Dir(pageURI)
		if !strings.HasSuffix(base, "/") {
			fsRelative = "/" + fsRelative
		}
		fsRelative = base + fsRelative
	}

	return normalize(fsRelative), true
}

// normalize resolves "." and ".." path components by splitting on "/" and
// walking a stack: "." and empty components are skipped, ".." pops the
// stack (a no-op if it's already empty), anything else is pushed.
func normalize(p string) string {
	components := strings.Split(p, "/")
	stack := make([]string, 0, len(components))

	for _, comp := range components {
		switch comp {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, comp)
		}
	}

	var b strings.Builder
	for _, c := range stack {
		b.WriteByte('/')
		b.WriteString(c)
	}
	return b.String()
}
