package morph

import (
	"golang.org/x/net/html"

	"alpaca-morph/internal/domwalk"
	"alpaca-morph/internal/logger"
)

var log = logger.New("MORPH", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

// Coordinate runs the strategy selected by req against doc's already
// enumerated objects, mutating doc in place (annotating surviving real
// objects, inlining the shortfall, or appending fakes) and returns the
// HTML target size the caller should pad the serialized document to.
//
// serializedLen is the length of doc serialized before this call — the
// size the probabilistic strategies measure their HTML-size lower bound
// against; the deterministic strategies re-serialize doc after annotating
// it and measure that instead.
// An error here means the strategy aborted outright (an invalid
// distribution spec, an exhausted sample-limit, or similar); the caller
// should serve doc serialized as-is, unpadded, rather than treat this as
// a hard failure — every mutation upstream of this call (stylesheet
// inlining, favicon backstop) still belongs in the response.
func Coordinate(req *Request, doc *html.Node, objects []*domwalk.Object, serializedLen int) (int, error) {
	local := filterLocal(objects)

	switch {
	case req.Probabilistic && !req.InliningEnabled:
		return probabilisticNoInlining(req, doc, local, serializedLen)
	case req.Probabilistic && req.InliningEnabled:
		return probabilisticInlining(req, doc, local, serializedLen)
	case !req.Probabilistic && !req.InliningEnabled:
		return deterministicNoInlining(req, doc, local, serializedLen)
	default:
		return deterministicInlining(req, doc, local, serializedLen)
	}
}
