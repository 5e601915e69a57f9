package domwalk

import (
	"strings"
	"testing"
)

func TestAnnotatePadding_AppendsQuestionMarkWhenNoQuery(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><img src="/a.png"></body></html>`))
	obj := &Object{Kind: KindImg, URI: "/a.png", Node: elementsByTag(doc, "img")[0]}

	AnnotatePadding(obj, 100)

	src, _ := getAttr(obj.Node, "src")
	if src != "/a.png?alpaca-padding=100" {
		t.Errorf("got %q", src)
	}
}

func TestAnnotatePadding_AppendsAmpersandWhenQueryExists(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><img src="/a.png?x=1"></body></html>`))
	obj := &Object{Kind: KindImg, URI: "/a.png?x=1", Node: elementsByTag(doc, "img")[0]}

	AnnotatePadding(obj, 100)

	src, _ := getAttr(obj.Node, "src")
	if src != "/a.png?x=1&alpaca-padding=100" {
		t.Errorf("got %q", src)
	}
}

func TestAnnotatePadding_CssImgRewritesStyleText(t *testing.T) {
	doc, _ := Parse([]byte(`<html><head><style>a{background:url("/bg.png")}</style></head></html>`))
	styleNode := elementsByTag(doc, "style")[0]
	obj := &Object{Kind: KindCssImg, URI: "/bg.png", Node: styleNode}

	AnnotatePadding(obj, 50)

	text := textContent(styleNode)
	if !strings.Contains(text, "/bg.png?alpaca-padding=50") {
		t.Errorf("got %q", text)
	}
}

func TestParseTargetSize(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"?alpaca-padding=20", 20},
		{"?alpaca-padding=12", 12},
		{"?x=1&alpaca-padding=55&y=2", 55},
		{"?nothing-here", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ParseTargetSize(c.query); got != c.want {
			t.Errorf("ParseTargetSize(%q) = %d, want %d", c.query, got, c.want)
		}
	}
}

func TestAppendFakeImages(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body></body></html>`))
	size1, size2 := 10, 20
	fakes := []*Object{
		{Kind: KindFakeImg, TargetSize: &size1},
		{Kind: KindFakeImg, TargetSize: &size2},
	}

	AppendFakeImages(doc, fakes)

	out := string(Serialize(doc))
	if !strings.Contains(out, `/__alpaca_fake_image.png?alpaca-padding=10&i=1`) {
		t.Errorf("missing first fake image, got %s", out)
	}
	if !strings.Contains(out, `/__alpaca_fake_image.png?alpaca-padding=20&i=2`) {
		t.Errorf("missing second fake image, got %s", out)
	}
	if !strings.Contains(out, `style="visibility:hidden"`) {
		t.Errorf("missing hidden style, got %s", out)
	}
}

func TestDataURI(t *testing.T) {
	got := DataURI("/a.png", []byte("hi"))
	if !strings.HasPrefix(got, "data:image/png;charset=utf-8;base64,") {
		t.Errorf("got %q", got)
	}
}

func TestDataURI_UnknownExtensionFallsBackToOctetStream(t *testing.T) {
	got := DataURI("/a.weird", []byte("hi"))
	if !strings.HasPrefix(got, "data:image/octet-stream;") {
		t.Errorf("got %q", got)
	}
}

func TestInlineAsDataURI_RewritesSrc(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><img src="/a.png"></body></html>`))
	obj := &Object{Kind: KindImg, URI: "/a.png", Content: []byte("hi"), Node: elementsByTag(doc, "img")[0]}

	InlineAsDataURI(obj)

	src, _ := getAttr(obj.Node, "src")
	if !strings.HasPrefix(src, "data:image/png;") {
		t.Errorf("got %q", src)
	}
}
