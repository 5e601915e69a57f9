package domwalk

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
)

// InlineStylesheets is the exported, filesystem-backed entry point for the
// stylesheet-inlining pre-pass on its own, independent of full object
// enumeration — the pre-pass-only FFI contract.
func InlineStylesheets(doc *html.Node, root string, read FileReader) {
	inlineStylesheets(doc, func(href string) ([]byte, bool) {
		data, err := read(root + "/" + strings.TrimPrefix(href, "/"))
		if err != nil {
			return nil, false
		}
		return data, true
	})
}

// InlineStylesheetsFromContent is the content-map counterpart of
// InlineStylesheets.
func InlineStylesheetsFromContent(doc *html.Node, pageURI string, content ContentReader) {
	inlineStylesheetsFromContent(doc, pageURI, content)
}

// inlineStylesheets turns every <link> whose href is non-empty, not a
// data: URI and does not contain "favicon.ico" (whatever its rel) into an
// inline <style> holding the same text, so the morphing coordinator can
// pad CSS together with the HTML instead of leaving it as a follow-up
// request. resolve receives the link's href and returns the stylesheet's
// text bytes.
func inlineStylesheets(doc *html.Node, resolve func(href string) ([]byte, bool)) {
	for _, n := range elementsByTag(doc, "link") {
		href, ok := getAttr(n, "href")
		if !ok || href == "" || strings.HasPrefix(href, "data:") {
			continue
		}
		if strings.Contains(href, "favicon.ico") {
			continue
		}

		data, ok := resolve(href)
		if !ok {
			continue
		}

		style := newElement("style")
		style.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})

		if n.Parent != nil {
			n.Parent.AppendChild(style)
		}
		detach(n)
	}
}

// inlineStylesheetsFromContent is the content-map counterpart of
// inlineStylesheets. It keys the map by "/"+href directly rather than
// resolving href against pageURI — the host's preloaded-content map is
// keyed by the literal reference, the same convention the reference
// engine's C-hashtable variant of this pass used.
func inlineStylesheetsFromContent(doc *html.Node, pageURI string, content ContentReader) {
	_ = pageURI // kept for API symmetry with EnumerateObjectsFromContent
	for _, n := range elementsByTag(doc, "link") {
		href, ok := getAttr(n, "href")
		if !ok || href == "" || strings.HasPrefix(href, "data:") {
			continue
		}
		if strings.Contains(href, "favicon.ico") {
			continue
		}

		data, ok := content("/" + strings.TrimPrefix(href, "/"))
		if !ok {
			continue
		}

		style := newElement("style")
		style.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})

		if n.Parent != nil {
			n.Parent.AppendChild(style)
		}
		detach(n)
	}
}

// imageMIMESubtype maps a file extension to the subtype used in a
// data:image/<subtype> URI. Unknown extensions fall back to a generic
// octet-stream subtype rather than failing the whole morph — treating an
// unrecognized sub-resource as opaque binary is safer than aborting.
func imageMIMESubtype(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	default:
		return "octet-stream"
	}
}

func fileExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// DataURI base64-encodes data into a data:image/<subtype>;charset=utf-8;
// base64,... URI, subtype chosen from uri's file extension.
func DataURI(uri string, data []byte) string {
	subtype := imageMIMESubtype(fileExtension(strings.SplitN(uri, "?", 2)[0]))
	return "data:image/" + subtype + ";charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data)
}

// InlineAsDataURI replaces obj's URL reference with a self-contained data
// URI built from its own content, eliminating the follow-up request the
// reference would otherwise cost.
func InlineAsDataURI(obj *Object) {
	rewriteObjectURL(obj, DataURI(obj.URI, obj.Content))
}

// rewriteObjectURL sets obj's URL attribute (src/href) to newValue, or for
// a CssImg object (whose node is a <style> element) replaces the first
// occurrence of obj.URI in its text with newValue.
func rewriteObjectURL(obj *Object, newValue string) {
	if obj.Node == nil {
		return
	}

	attr := attrForTag(obj.Node.Data)
	if attr == "style" {
		text := textContent(obj.Node)
		setTextContent(obj.Node, strings.Replace(text, obj.URI, newValue, 1))
		return
	}

	setAttr(obj.Node, attr, newValue)
}

func attrForTag(tag string) string {
	switch tag {
	case "img", "script":
		return "src"
	case "link":
		return "href"
	case "style":
		return "style"
	default:
		return "src"
	}
}
