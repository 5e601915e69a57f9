package morph

import "alpaca-morph/internal/distribution"

// Request carries everything the coordinator needs beyond the parsed
// document and its enumerated objects: where the page lives, and which of
// the four strategies to run.
type Request struct {
	// Root is the document root directory; PageURI is the page's own
	// absolute-path URI within that root. Alias is the length of a URI
	// prefix the host reserves for routing that isn't part of the real
	// document tree (see pathresolve).
	Root    string
	PageURI string
	Alias   int

	// Probabilistic selects sampling from configured distributions;
	// false selects the fixed multiple-of-N grid.
	Probabilistic bool

	// Distribution specs, only read when Probabilistic is true.
	DistHTMLSize    string
	DistObjSize     string
	DistObjNum      string
	UseTotalObjSize bool

	// Deterministic parameters, only read when Probabilistic is false.
	ObjNum     int
	ObjSize    int
	MaxObjSize int

	// InliningEnabled selects the inlining variant of whichever mode:
	// a target object count below the real count inlines the shortfall
	// as data URIs instead of being clamped up to the real count.
	InliningEnabled bool

	// DistLoader resolves distribution specs through a cross-request
	// cache, so a hot root's .dist files aren't re-read and re-parsed on
	// every request. Nil falls back to parsing fresh every call.
	DistLoader *distribution.Loader
}
