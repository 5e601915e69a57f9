package domwalk

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// AnnotatePadding appends "?alpaca-padding=<targetSize>" (or
// "&alpaca-padding=<targetSize>" if obj's URI already carries a query) to
// obj's URL attribute, or substring-replaces the original URI in its
// <style> text for a CssImg object.
func AnnotatePadding(obj *Object, targetSize int) {
	sep := "?"
	if strings.Contains(obj.URI, "?") {
		sep = "&"
	}
	newValue := obj.URI + sep + "alpaca-padding=" + strconv.Itoa(targetSize)
	rewriteObjectURL(obj, newValue)
}

// ParseTargetSize extracts the alpaca-padding value from a request query
// string: split on the literal "alpaca-padding=", take the last piece,
// split on "&", parse the first piece as an unsigned integer. Returns 0 on
// any parse failure, matching the "no padding requested" default.
func ParseTargetSize(query string) int {
	parts := strings.Split(query, "alpaca-padding=")
	last := parts[len(parts)-1]
	sizeStr := strings.SplitN(last, "&", 2)[0]

	n, err := strconv.Atoi(sizeStr)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// AppendFakeImages appends one hidden <img> per fake object to <body> (or
// the document root if there's no <body>), each pointing at the
// well-known fake-image route with its chosen padding size. Indices start
// at 1, the same numbering the annotation contract promises hosts.
func AppendFakeImages(doc *html.Node, fakes []*Object) {
	parent := firstElementByTag(doc, "body")
	if parent == nil {
		parent = doc
	}

	for i, obj := range fakes {
		size := 0
		if obj.TargetSize != nil {
			size = *obj.TargetSize
		}

		elem := newElement("img")
		setAttr(elem, "src", fmt.Sprintf("/__alpaca_fake_image.png?alpaca-padding=%d&i=%d", size, i+1))
		setAttr(elem, "style", "visibility:hidden")
		parent.AppendChild(elem)
	}
}
