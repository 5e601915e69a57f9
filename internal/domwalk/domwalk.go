// Package domwalk walks and mutates a parsed HTML5 document tree: it finds
// the sub-resources a page references (images, stylesheets, scripts, and
// the images CSS pulls in through url(...)), inlines stylesheets into the
// document so they can be padded alongside it, and rewrites URL attributes
// once the morphing coordinator has decided each object's fate.
package domwalk

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"alpaca-morph/internal/logger"
)

var log = logger.New("DOMWALK", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

// Sentinel errors surfaced across the package.
var (
	// ErrParseError means the input bytes handed to Parse are not valid UTF-8.
	ErrParseError = errors.New("domwalk: input is not valid UTF-8")

	// ErrIoError means a referenced sub-resource could not be read.
	ErrIoError = errors.New("domwalk: cannot read referenced object")
)

// Kind classifies an Object: which padding container is legal, whether it
// may be inlined as a data URI, and which attribute carries its URL.
type Kind int

const (
	KindUnknown Kind = iota
	KindHTML
	KindCSS     // link[rel=stylesheet] that survived the inlining pre-pass
	KindJS      // script
	KindImg     // img, or link[rel=icon|shortcut icon]
	KindCssImg  // an image referenced from a <style>'s url(...)
	KindFakeImg // an injected padding-only object, never in the source DOM
)

// String names a Kind the way log lines and tests expect to see it.
func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindCSS:
		return "css"
	case KindJS:
		return "js"
	case KindImg:
		return "img"
	case KindCssImg:
		return "css-img"
	case KindFakeImg:
		return "fake-img"
	default:
		return "unknown"
	}
}

// IsCSSOrJS reports whether this kind is padded with a CSS/JS comment
// (alphanumeric filler inside /* ... */) rather than a raw byte blob.
func (k Kind) IsCSSOrJS() bool {
	return k == KindCSS || k == KindJS
}

// Object is a sub-resource discovered while walking the tree, or a fake
// object injected purely to pad the page's object count.
type Object struct {
	Kind Kind

	// Content holds the object's real bytes. Empty for a fake object.
	Content []byte

	// Node is the DOM handle used for attribute rewrites: the referencing
	// element for Img/Css/Js, the containing <style> for CssImg, nil for
	// FakeImg (which has no source node — it's appended fresh).
	Node *html.Node

	// TargetSize is set by the morphing coordinator once a size has been
	// chosen; nil means no size was assigned (for example when re-sampling a
	// size for the object failed) and the object is left unannotated.
	TargetSize *int

	// URI is the object's original reference as written in the HTML: the
	// href/src attribute value, or the CSS url(...) argument.
	URI string
}

// NewFakeObject builds a padding-only Object with no real content, the
// fake-object shape the coordinator injects to raise the object count.
func NewFakeObject(targetSize int) *Object {
	return &Object{Kind: KindFakeImg, TargetSize: &targetSize, URI: "pad_object"}
}

// Parse builds an HTML5 document tree from raw bytes. content is
// transcoded to UTF-8 first, based on a BOM or an HTML meta charset
// declaration it carries — a file already in UTF-8 (the common case)
// passes through unchanged.
func Parse(content []byte) (*html.Node, error) {
	decoded, err := decodeToUTF8(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%w", ErrParseError)
	}
	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	return doc, nil
}

// decodeToUTF8 transcodes content to UTF-8 when a BOM or a declared
// <meta charset> pins it to something else. Absent either signal,
// DetermineEncoding's guess is uncertain and content is assumed to
// already be UTF-8 (the common case for hand-authored pages) rather
// than risk mangling it under the legacy windows-1252 default.
// DetermineEncoding reports a <meta charset> match as uncertain as well,
// so an uncertain result is checked once more for a declaration.
func decodeToUTF8(content []byte) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(content, "")
	if name == "utf-8" {
		return content, nil
	}
	if !certain {
		// An ASCII copy of the head ending in one valid multi-byte rune
		// detects as utf-8 unless a meta declaration names another charset.
		probe := bytes.Map(func(r rune) rune {
			if r >= utf8.RuneSelf {
				return 'x'
			}
			return r
		}, content[:min(len(content), 1000)])
		if _, declared, _ := charset.DetermineEncoding(append(probe, "é"...), ""); declared == "utf-8" {
			return content, nil
		}
	}
	return enc.NewDecoder().Bytes(content)
}

// Serialize renders a document tree back to bytes.
func Serialize(doc *html.Node) []byte {
	var buf bytes.Buffer
	// html.Render only errors on a broken writer; a bytes.Buffer never fails.
	_ = html.Render(&buf, doc)
	return buf.Bytes()
}

// walk calls fn for n and every descendant, in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// elementsByTag returns every element node in doc order whose tag matches
// one of names. Matching goes through atom.Lookup rather than comparing
// n.Data directly, the same way the parser itself tags known elements.
func elementsByTag(doc *html.Node, names ...string) []*html.Node {
	set := make(map[atom.Atom]bool, len(names))
	for _, n := range names {
		set[atom.Lookup([]byte(n))] = true
	}
	var out []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && set[n.DataAtom] {
			out = append(out, n)
		}
	})
	return out
}

func firstElementByTag(doc *html.Node, name string) *html.Node {
	els := elementsByTag(doc, name)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func newElement(tag string) *html.Node {
	return &html.Node{
		Type: html.ElementNode,
		Data: tag,
	}
}

func textContent(n *html.Node) string {
	if n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		return ""
	}
	return n.FirstChild.Data
}

func setTextContent(n *html.Node, text string) {
	if n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}
	n.FirstChild.Data = text
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
