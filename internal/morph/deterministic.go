package morph

import (
	"fmt"
	"math/rand"

	"golang.org/x/net/html"

	"alpaca-morph/internal/domwalk"
)

// getMultiple returns the smallest multiple of num that is >= min, except
// that it never returns less than num itself. When min is already an exact
// multiple of num, this returns min unchanged — not the next multiple up.
// Verified directly against the reference deterministic-sizing routine
// (count starts at num, the loop only advances while count < min), despite
// a temptation to read it as strictly-greater; preserved here rather than
// "fixed" since nothing downstream depends on strict inequality.
func getMultiple(num, min int) int {
	count := num
	for count < min {
		count += num
	}
	return count
}

// getMultiplesInRange draws n target sizes for fake objects, each an
// independent uniform multiple of objSize in [objSize, maxObjSize].
// maxObjSize must be a positive multiple of objSize no smaller than it.
func getMultiplesInRange(objSize, maxObjSize, n int) ([]int, error) {
	if objSize > maxObjSize || maxObjSize%objSize != 0 {
		return nil, fmt.Errorf("%w: max_obj_size (%d) must be >= and a multiple of obj_size (%d)", ErrInvalidSpec, maxObjSize, objSize)
	}

	max := maxObjSize/objSize + 1 // exclusive upper bound: 1..max_obj_size/obj_size inclusive
	sizes := make([]int, n)
	for i := range sizes {
		k := 1 + rand.Intn(max-1)
		sizes[i] = k * objSize
	}
	return sizes, nil
}

// deterministicSizing assigns every real object the smallest multiple of
// obj_size that covers its content plus padding overhead, injects
// fakeCount := nTarget - n0 fakes with independently sampled multiple
// sizes, and returns the smallest multiple of obj_size that covers the
// serialized document (measured after the annotations and fakes above are
// in place) plus its 7-byte HTML comment overhead. local must already
// reflect any inlining decision.
func deterministicSizing(req *Request, doc *html.Node, local []*domwalk.Object, nTarget int) (int, error) {
	for _, obj := range local {
		t := getMultiple(req.ObjSize, neededSize(obj))
		obj.TargetSize = &t
		domwalk.AnnotatePadding(obj, t)
	}

	fakeCount := nTarget - len(local)
	if fakeCount > 0 {
		sizes, err := getMultiplesInRange(req.ObjSize, req.MaxObjSize, fakeCount)
		if err != nil {
			return 0, err
		}
		fakes := make([]*domwalk.Object, fakeCount)
		for i, s := range sizes {
			fakes[i] = domwalk.NewFakeObject(s)
		}
		domwalk.AppendFakeImages(doc, fakes)
	}

	return getMultiple(req.ObjSize, len(domwalk.Serialize(doc))+7), nil
}

// deterministicNoInlining: N_target is the smallest multiple of obj_num
// that is >= n0.
func deterministicNoInlining(req *Request, doc *html.Node, local []*domwalk.Object, serializedLen int) (int, error) {
	nTarget := getMultiple(req.ObjNum, len(local))
	return deterministicSizing(req, doc, local, nTarget)
}

// deterministicInlining: N_target is obj_num verbatim. A page with more
// real objects than obj_num inlines the excess (largest-first, from the
// front of the descending-sorted list) instead of injecting fakes.
func deterministicInlining(req *Request, doc *html.Node, local []*domwalk.Object, serializedLen int) (int, error) {
	local = inlineExcess(local, req.ObjNum)
	return deterministicSizing(req, doc, local, req.ObjNum)
}
