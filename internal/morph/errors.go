// Package morph is the morphing engine's public surface: it runs the DOM
// walker, path resolver, distribution sampler, and padding generator
// together to reshape an HTML response's object count and byte sizes
// toward a configured target, and exposes the same object-level padding
// primitive standalone for non-HTML responses.
//
// There is no FFI boundary here, no owned-buffer handoff, and no
// free_memory call for a host to make: every entry point takes and
// returns ordinary Go values, and the garbage collector reclaims them
// like anything else. A host embeds this package directly rather than
// linking against it across a language boundary.
package morph

import (
	"alpaca-morph/internal/distribution"
	"alpaca-morph/internal/domwalk"
	"alpaca-morph/internal/padding"
)

// Re-exported sentinel errors, collected here so a caller checking
// errors.Is against this package's API never needs to import the leaf
// packages that actually produce them.
var (
	ErrInvalidSpec   = distribution.ErrInvalidSpec
	ErrEmptySupport  = distribution.ErrEmptySupport
	ErrSampleLimit   = distribution.ErrSampleLimit
	ErrArityMismatch = distribution.ErrArityMismatch
	ErrIoError       = domwalk.ErrIoError
	ErrParseError    = domwalk.ErrParseError
	ErrNegativePad   = padding.ErrNegativePad
)
