package morph

import (
	"alpaca-morph/internal/domwalk"
	"alpaca-morph/internal/padding"
)

// MorphHTML runs the full pipeline against a filesystem-backed root: parse,
// stylesheet-inlining pre-pass, object enumeration, strategy coordination,
// and final HTML padding. read resolves a sub-resource's filesystem path
// to its bytes.
//
// On a strategy abort (see Coordinate), the returned bytes are the
// document serialized as-is — stylesheet inlining and the favicon backstop
// already applied, but unpadded — rather than the original input.
func MorphHTML(req *Request, content []byte, read domwalk.FileReader) ([]byte, error) {
	doc, err := domwalk.Parse(content)
	if err != nil {
		return nil, err
	}

	objects := domwalk.EnumerateObjects(doc, req.Root, req.PageURI, req.Alias, read)
	serialized := domwalk.Serialize(doc)

	htmlTarget, cerr := Coordinate(req, doc, objects, len(serialized))
	if cerr != nil {
		log.Warnf("morph_html", "strategy aborted, serving unpadded: %v", cerr)
		return domwalk.Serialize(doc), nil
	}

	return padding.HTML(domwalk.Serialize(doc), htmlTarget), nil
}

// MorphHTMLFromContent is MorphHTML's counterpart for a host that resolves
// sub-resources from a preloaded URI→content map instead of the
// filesystem.
func MorphHTMLFromContent(req *Request, content []byte, lookup domwalk.ContentReader) ([]byte, error) {
	doc, err := domwalk.Parse(content)
	if err != nil {
		return nil, err
	}

	objects := domwalk.EnumerateObjectsFromContent(doc, req.PageURI, lookup)
	serialized := domwalk.Serialize(doc)

	htmlTarget, cerr := Coordinate(req, doc, objects, len(serialized))
	if cerr != nil {
		log.Warnf("morph_html_from_content", "strategy aborted, serving unpadded: %v", cerr)
		return domwalk.Serialize(doc), nil
	}

	return padding.HTML(domwalk.Serialize(doc), htmlTarget), nil
}

// InlineCSSContent runs the stylesheet-inlining pre-pass on its own,
// without enumerating objects or applying any sizing strategy — for a host
// that wants inlined CSS without morphing the page (e.g. to measure the
// post-inlining length before deciding whether to morph at all).
func InlineCSSContent(content []byte, root string, read domwalk.FileReader) ([]byte, error) {
	doc, err := domwalk.Parse(content)
	if err != nil {
		return nil, err
	}
	domwalk.InlineStylesheets(doc, root, read)
	return domwalk.Serialize(doc), nil
}

// GetHTMLRequiredFiles parses content and returns every local URI it
// references, without reading or morphing any of them — so a host can
// prefetch sub-resources before calling MorphHTML.
func GetHTMLRequiredFiles(content []byte) ([]string, error) {
	doc, err := domwalk.Parse(content)
	if err != nil {
		return nil, err
	}
	return domwalk.RequiredFiles(doc), nil
}

// GetRequiredCSSFiles parses content and returns every stylesheet URI it
// references (excluding the favicon), the set a host needs before running
// the stylesheet-inlining pre-pass.
func GetRequiredCSSFiles(content []byte) ([]string, error) {
	doc, err := domwalk.Parse(content)
	if err != nil {
		return nil, err
	}
	return domwalk.RequiredCSSFiles(doc), nil
}

// ObjectRequest describes a single non-HTML sub-resource fetch: its bytes,
// whether it's a CSS/JS text object (comment padding) or binary (raw
// filler), and the target size encoded in the request's query string.
type ObjectRequest struct {
	Content   []byte
	IsCSSOrJS bool
	Query     string
}

// MorphObject computes the padding delta for a single requested
// sub-resource against the target size encoded in its query string — the
// secondary entry point used for every follow-up request MorphHTML's
// annotation left behind. Returns an empty slice, never req.Content, when
// the query carries no padding hint or the hint can't be padded into: the
// caller appends the returned bytes to what it already served and must
// not receive the original content echoed back.
func MorphObject(req ObjectRequest) []byte {
	target := domwalk.ParseTargetSize(req.Query)
	if target == 0 {
		return []byte{}
	}

	padded := padding.Object(req.IsCSSOrJS, len(req.Content), target)
	if padded == nil {
		return []byte{}
	}
	return padded
}
