package morph

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"alpaca-morph/internal/distribution"
	"alpaca-morph/internal/domwalk"
	"alpaca-morph/internal/padding"
)

// maxSizeDigits conservatively bounds how many decimal digits a target size
// or fake-object index can take when estimating annotation overhead below.
// Any real page stays far under this width; overestimating here only makes
// the html-size lower bound stricter, never wrong — underestimating is what
// leaves a page too short to pad (see ErrNegativePad).
const maxSizeDigits = 10

// queryAnnotationOverhead is the worst-case byte cost of appending
// "?alpaca-padding=<N>" to an existing object's URL, computed from the
// literal template rather than a hand-counted constant.
func queryAnnotationOverhead() int {
	return len("?alpaca-padding=") + maxSizeDigits
}

// fakeImageAnnotationOverhead is the worst-case byte cost of one injected
// fake-image tag, computed from the literal template used by
// domwalk.AppendFakeImages.
func fakeImageAnnotationOverhead() int {
	digits := strings.Repeat("9", maxSizeDigits)
	tmpl := `<img src="/__alpaca_fake_image.png?alpaca-padding=` + digits + `&i=` + digits + `" style="visibility:hidden">`
	return len(tmpl)
}

// parseDist resolves spec through req.DistLoader when one is configured,
// so repeat requests against the same .dist file hit the cache instead of
// re-reading and re-parsing it; falls back to a direct parse otherwise.
func parseDist(req *Request, spec string) (*distribution.Dist, error) {
	if req.DistLoader != nil {
		return req.DistLoader.Load(spec)
	}
	return distribution.Parse(spec)
}

func neededSize(obj *domwalk.Object) int {
	return len(obj.Content) + padding.MinObjectPadding(obj.Kind.IsCSSOrJS())
}

// filterLocal keeps only objects whose URI doesn't reference a different
// server. Enumeration already rejects absolute http(s) URLs before an
// Object is ever built, so this is a defensive re-check matching the
// coordinator's own stated invariant rather than a filter expected to
// actually drop anything in practice.
func filterLocal(objects []*domwalk.Object) []*domwalk.Object {
	local := make([]*domwalk.Object, 0, len(objects))
	for _, obj := range objects {
		if strings.Contains(obj.URI, "http:") || strings.Contains(obj.URI, "https:") {
			continue
		}
		local = append(local, obj)
	}
	return local
}

// applySizing runs the probabilistic independent/total-obj-size sizing
// modes, annotates every surviving real object's URL, appends the fake
// objects to doc, and returns the chosen HTML target size. local must
// already reflect any inlining decision (its length is n0 post-inlining).
func applySizing(req *Request, doc *html.Node, local []*domwalk.Object, nTarget, serializedLen int) (int, error) {
	n0 := len(local)
	minHTMLSize := serializedLen + 7 +
		queryAnnotationOverhead()*n0 +
		fakeImageAnnotationOverhead()*max(0, nTarget-n0)

	var (
		htmlTarget int
		fakes      []*domwalk.Object
		err        error
	)
	if req.UseTotalObjSize {
		htmlTarget, fakes, err = sizeTotalObjMode(req, local, nTarget, minHTMLSize)
	} else {
		htmlTarget, fakes, err = sizeIndependentMode(req, local, nTarget, minHTMLSize)
	}
	if err != nil {
		return 0, err
	}

	for _, obj := range local {
		if obj.TargetSize != nil {
			domwalk.AnnotatePadding(obj, *obj.TargetSize)
		}
	}
	domwalk.AppendFakeImages(doc, fakes)

	return htmlTarget, nil
}

// sizeIndependentMode implements the use_total_obj_size = 0 branch: H and
// the object sizes are sampled independently. N_target sizes >= 1 are
// drawn from dist_obj_size and sorted ascending; each real object takes
// the largest remaining pooled size that covers its own need (popped from
// the end), or falls back to a direct re-sample when none does. Whatever
// pooled sizes are never claimed become the fakes' target sizes.
func sizeIndependentMode(req *Request, local []*domwalk.Object, nTarget, minHTMLSize int) (int, []*domwalk.Object, error) {
	distHTMLSize, err := parseDist(req, req.DistHTMLSize)
	if err != nil {
		return 0, nil, err
	}
	distObjSize, err := parseDist(req, req.DistObjSize)
	if err != nil {
		return 0, nil, err
	}

	h, err := distribution.SampleGE(distHTMLSize, uint64(minHTMLSize))
	if err != nil {
		return 0, nil, err
	}

	pool, err := distribution.SampleGEMany(distObjSize, 1, nTarget)
	if err != nil {
		return 0, nil, err
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i] < pool[j] })

	idx := len(pool) - 1
	for _, obj := range local {
		needed := neededSize(obj)
		if idx >= 0 && int(pool[idx]) >= needed {
			t := int(pool[idx])
			obj.TargetSize = &t
			idx--
			continue
		}

		size, rerr := distribution.SampleGE(distObjSize, uint64(needed))
		if rerr != nil {
			log.Warnf("independent_mode", "cannot size object, serving unpadded: %v", rerr)
			continue
		}
		t := int(size)
		obj.TargetSize = &t
	}

	var fakes []*domwalk.Object
	for i := 0; i <= idx; i++ {
		fakes = append(fakes, domwalk.NewFakeObject(int(pool[i])))
	}

	return int(h), fakes, nil
}

// sizeTotalObjMode implements the use_total_obj_size != 0 branch: a single
// total-object-size budget S is split across every real and fake object
// (N_target of them) in proportion to how many remain, the last absorbing
// whatever integer division left over.
func sizeTotalObjMode(req *Request, local []*domwalk.Object, nTarget, minHTMLSize int) (int, []*domwalk.Object, error) {
	minObjSize := 0
	for _, obj := range local {
		minObjSize += neededSize(obj)
	}

	distObjSize, err := parseDist(req, req.DistObjSize)
	if err != nil {
		return 0, nil, err
	}
	distHTMLSize, err := parseDist(req, req.DistHTMLSize)
	if err != nil {
		return 0, nil, err
	}

	var h, s uint64
	if distObjSize.Name == "Joint" {
		h, s, err = distribution.SamplePairGE(distHTMLSize, uint64(minHTMLSize), uint64(minObjSize))
		if err != nil {
			return 0, nil, err
		}
	} else {
		h, err = distribution.SampleGE(distHTMLSize, uint64(minHTMLSize))
		if err != nil {
			return 0, nil, err
		}
		s, err = distribution.SampleGE(distObjSize, uint64(minObjSize))
		if err != nil {
			return 0, nil, err
		}
	}

	if s > 0 && nTarget == 0 {
		nTarget = 1
	}

	fakeCount := nTarget - len(local)
	fakes := make([]*domwalk.Object, 0, max(0, fakeCount))
	for i := 0; i < fakeCount; i++ {
		fakes = append(fakes, domwalk.NewFakeObject(0))
	}

	all := make([]*domwalk.Object, 0, len(local)+len(fakes))
	all = append(all, local...)
	all = append(all, fakes...)

	extra := int(s) - minObjSize
	for i, obj := range all {
		remaining := len(all) - i
		pad := extra / remaining
		needed := neededSize(obj)
		t := needed + pad
		obj.TargetSize = &t
		extra -= pad
	}
	if len(all) > 0 {
		*all[len(all)-1].TargetSize += extra
	}

	return int(h), fakes, nil
}
