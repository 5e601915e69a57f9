package morph

import (
	"golang.org/x/net/html"

	"alpaca-morph/internal/distribution"
	"alpaca-morph/internal/domwalk"
)

// inlineExcess inlines the front toInline = n0-nTarget objects of local
// (the largest-first slice, since local is already sorted descending by
// content length) as data URIs and returns the survivors. A no-op if
// nTarget >= n0.
//
// The worked specification describing this step calls the objects taken
// "smallest-first" while also saying to take them "from the front of the
// list" — but the list is sorted largest-first, so its front holds the
// largest objects, not the smallest. Taking literally from the front (as
// directed) is what's implemented here; the "smallest-first" wording
// appears to be a misdescription of that same instruction rather than a
// second, conflicting one.
func inlineExcess(local []*domwalk.Object, nTarget int) []*domwalk.Object {
	n0 := len(local)
	if nTarget >= n0 {
		return local
	}
	toInline := n0 - nTarget
	if toInline > len(local) {
		toInline = len(local)
	}
	for _, obj := range local[:toInline] {
		domwalk.InlineAsDataURI(obj)
	}
	return local[toInline:]
}

// probabilisticNoInlining samples N_target with a floor of n0, so the
// result is never used to remove real objects — only to add fakes.
func probabilisticNoInlining(req *Request, doc *html.Node, local []*domwalk.Object, serializedLen int) (int, error) {
	distObjNum, err := parseDist(req, req.DistObjNum)
	if err != nil {
		return 0, err
	}

	nTarget, serr := distribution.SampleGE(distObjNum, uint64(len(local)))
	if serr != nil {
		log.Warnf("probabilistic", "sampling object count failed, keeping n0: %v", serr)
		nTarget = uint64(len(local))
	}

	return applySizing(req, doc, local, int(nTarget), serializedLen)
}

// probabilisticInlining samples N_target with no floor, so it may come in
// under n0 — in which case the shortfall is inlined rather than padded
// with fakes.
func probabilisticInlining(req *Request, doc *html.Node, local []*domwalk.Object, serializedLen int) (int, error) {
	distObjNum, err := parseDist(req, req.DistObjNum)
	if err != nil {
		return 0, err
	}

	nTargetU, serr := distribution.SampleGE(distObjNum, 0)
	if serr != nil {
		log.Warnf("probabilistic", "sampling object count failed, keeping n0: %v", serr)
		nTargetU = uint64(len(local))
	}
	nTarget := int(nTargetU)

	local = inlineExcess(local, nTarget)

	return applySizing(req, doc, local, nTarget, serializedLen)
}
