package domwalk

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"alpaca-morph/internal/pathresolve"
)

// FileReader reads a sub-resource given its resolved filesystem path.
type FileReader func(fsPath string) ([]byte, error)

// ContentReader reads a sub-resource given its resolved URI, from a
// host-owned URI→content map rather than the filesystem.
type ContentReader func(uri string) ([]byte, bool)

// EnumerateObjects runs the filesystem-backed pipeline: it inlines
// referenced stylesheets into <style> elements, then walks the resulting
// tree collecting every local sub-resource (images, scripts, surviving
// stylesheet links, and images referenced from inlined CSS) along with
// its real bytes. Objects are returned sorted by descending content
// length, the order the coordinator assigns target sizes in.
func EnumerateObjects(doc *html.Node, root, pageURI string, alias int, read FileReader) []*Object {
	inlineStylesheets(doc, func(href string) ([]byte, bool) {
		fsPath := root + "/" + strings.TrimPrefix(href, "/")
		data, err := read(fsPath)
		if err != nil {
			log.Warnf("enumerate", "cannot read stylesheet %s: %v", fsPath, err)
			return nil, false
		}
		return data, true
	})

	objects, foundFavicon := collectLinkImgScript(doc, func(relative string) ([]byte, string, bool) {
		fsPath, ok := pathresolve.Resolve(root, relative, pageURI, alias)
		if !ok {
			return nil, "", false
		}
		data, err := read(fsPath)
		if err != nil {
			log.Warnf("enumerate", "cannot read %s: %v", fsPath, err)
			return nil, "", false
		}
		return data, fsPath, true
	})

	objects = append(objects, collectCSSImages(doc, func(relative string) ([]byte, bool) {
		fsPath, ok := pathresolve.Resolve(root, relative, pageURI, alias)
		if !ok {
			return nil, false
		}
		data, err := read(fsPath)
		if err != nil {
			log.Warnf("enumerate", "cannot read %s: %v", fsPath, err)
			return nil, false
		}
		return data, true
	})...)

	if !foundFavicon {
		insertEmptyFavicon(doc)
	}

	sortByContentLengthDescending(objects)
	return objects
}

// EnumerateObjectsFromContent mirrors EnumerateObjects but resolves every
// reference against a host-owned URI→content map instead of the
// filesystem — no root or alias is needed, since the map is keyed by the
// fully-resolved URI.
func EnumerateObjectsFromContent(doc *html.Node, pageURI string, content ContentReader) []*Object {
	inlineStylesheetsFromContent(doc, pageURI, content)

	objects, foundFavicon := collectLinkImgScript(doc, func(relative string) ([]byte, string, bool) {
		uri, ok := pathresolve.NormalizeURI(relative, pageURI)
		if !ok {
			return nil, "", false
		}
		data, ok := content(uri)
		if !ok {
			log.Warnf("enumerate", "no content mapped for %s", uri)
			return nil, "", false
		}
		return data, uri, true
	})

	objects = append(objects, collectCSSImages(doc, func(relative string) ([]byte, bool) {
		uri, ok := pathresolve.NormalizeURI(relative, pageURI)
		if !ok {
			return nil, false
		}
		return content(uri)
	})...)

	if !foundFavicon {
		insertEmptyFavicon(doc)
	}

	sortByContentLengthDescending(objects)
	return objects
}

// collectLinkImgScript walks every <img>, <link>, and <script>, classifies
// each by (tag, rel), and resolves+reads the ones worth keeping. resolve
// receives the query-stripped relative URL and returns its bytes, its
// resolved identifier (which this function discards), and whether it was
// found.
func collectLinkImgScript(doc *html.Node, resolve func(relative string) ([]byte, string, bool)) ([]*Object, bool) {
	var objects []*Object
	foundFavicon := false

	for _, n := range elementsByTag(doc, "img", "link", "script") {
		attr := "src"
		if n.Data == "link" {
			attr = "href"
		}

		path, ok := getAttr(n, attr)
		if !ok || path == "" || strings.HasPrefix(path, "data:") {
			continue
		}

		rel, _ := getAttr(n, "rel")
		var kind Kind
		switch {
		case n.Data == "link" && rel == "stylesheet":
			kind = KindCSS
		case n.Data == "link" && (rel == "shortcut icon" || rel == "icon"):
			foundFavicon = true
			kind = KindImg
		case n.Data == "script":
			kind = KindJS
		case n.Data == "img":
			kind = KindImg
		default:
			continue
		}

		relative := strings.SplitN(path, "?", 2)[0]
		data, _, ok := resolve(relative)
		if !ok {
			continue
		}

		objects = append(objects, &Object{Kind: kind, Content: data, Node: n, URI: path})
	}

	return objects, foundFavicon
}

// collectCSSImages visits every <style> element, extracts its url(...)
// references, and resolves+reads each one as a KindCssImg object whose
// node handle is the <style> element itself.
func collectCSSImages(doc *html.Node, resolve func(relative string) ([]byte, bool)) []*Object {
	var objects []*Object

	for _, n := range elementsByTag(doc, "style") {
		text := textContent(n)
		for _, path := range cssParseAllImages(text) {
			relative := strings.SplitN(path, "?", 2)[0]
			data, ok := resolve(relative)
			if !ok {
				continue
			}
			objects = append(objects, &Object{Kind: KindCssImg, Content: data, Node: n, URI: path})
		}
	}

	return objects
}

// cssParseAllImages extracts the argument of the first url(...) on each
// line of CSS text. Matching is line-oriented and single-shot per line: a
// second url(...) on the same line is not extracted, and a url(...) split
// across a line break is missed. Both match the upstream engine's output
// byte-for-byte rather than a fully general CSS tokenizer.
func cssParseAllImages(cssText string) []string {
	if !strings.Contains(cssText, "url") {
		return nil
	}

	var paths []string
	for _, line := range strings.Split(cssText, "\n") {
		noWS := removeWhitespace(line)
		if !strings.Contains(noWS, "url") {
			continue
		}
		noWS = strings.ReplaceAll(noWS, "'", "\"")

		parts := strings.SplitN(noWS, "url", 2)
		if len(parts) < 2 {
			continue
		}
		end := strings.IndexByte(parts[1], ')')
		if end < 0 {
			continue
		}
		path := stripURLDelimiters(parts[1][:end])
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func removeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripURLDelimiters(s string) string {
	r := strings.NewReplacer(`"`, "", "(", "", ")", "", ";", "")
	return r.Replace(s)
}

// insertEmptyFavicon appends a placeholder favicon link to <head> (or the
// document root if there is no <head>), stabilizing object count against
// browsers auto-requesting /favicon.ico.
func insertEmptyFavicon(doc *html.Node) {
	parent := firstElementByTag(doc, "head")
	if parent == nil {
		parent = doc
	}

	elem := newElement("link")
	setAttr(elem, "href", "data:,")
	setAttr(elem, "rel", "shortcut icon")
	parent.AppendChild(elem)
}

func sortByContentLengthDescending(objects []*Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		return len(objects[i].Content) > len(objects[j].Content)
	})
}

// RequiredFiles returns every local URI an HTML document references
// (images, stylesheets, scripts) without reading or morphing anything —
// used by a host that wants to prefetch sub-resources before calling the
// full enumeration pipeline.
func RequiredFiles(doc *html.Node) []string {
	var uris []string
	foundFavicon := false

	for _, n := range elementsByTag(doc, "img", "link", "script") {
		attr := "src"
		if n.Data == "link" {
			attr = "href"
		}
		path, ok := getAttr(n, attr)
		if !ok || path == "" || strings.HasPrefix(path, "data:") {
			continue
		}

		rel, _ := getAttr(n, "rel")
		if n.Data == "link" && (rel == "shortcut icon" || rel == "icon") {
			foundFavicon = true
		}
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			continue
		}

		uris = append(uris, fmt.Sprintf("/%s", strings.TrimPrefix(path, "/")))
	}

	if !foundFavicon {
		insertEmptyFavicon(doc)
	}

	return uris
}

// RequiredCSSFiles returns every non-favicon stylesheet URI an HTML
// document references, the set a host would need to fetch before running
// the stylesheet-inlining pre-pass.
func RequiredCSSFiles(doc *html.Node) []string {
	var uris []string
	for _, n := range elementsByTag(doc, "link") {
		rel, _ := getAttr(n, "rel")
		if rel != "stylesheet" {
			continue
		}
		href, ok := getAttr(n, "href")
		if !ok || href == "" || strings.HasPrefix(href, "data:") || strings.Contains(href, "favicon.ico") {
			continue
		}
		uris = append(uris, href)
	}
	return uris
}
