package morph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alpaca-morph/internal/domwalk"
	"alpaca-morph/internal/padding"
)

func TestCoordinate_S1_DeterministicNoInlining(t *testing.T) {
	input := []byte(`<html><body><img src="/a.png"><img src="/b.png"></body></html>`)
	doc, err := domwalk.Parse(input)
	if err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		"/var/www/a.png": make([]byte, 100),
		"/var/www/b.png": make([]byte, 50),
	}
	read := func(fsPath string) ([]byte, error) {
		data, ok := files[fsPath]
		if !ok {
			return nil, errors.New("not found")
		}
		return data, nil
	}

	objects := domwalk.EnumerateObjects(doc, "/var/www", "/index.html", 0, read)
	serialized := domwalk.Serialize(doc)

	req := &Request{ObjNum: 4, ObjSize: 100, MaxObjSize: 200}
	htmlTarget, err := Coordinate(req, doc, objects, len(serialized))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := string(padding.HTML(domwalk.Serialize(doc), htmlTarget))

	if !strings.Contains(out, `src="/a.png?alpaca-padding=100"`) {
		t.Errorf("missing a.png annotation, got %s", out)
	}
	if !strings.Contains(out, `src="/b.png?alpaca-padding=100"`) {
		t.Errorf("missing b.png annotation, got %s", out)
	}
	if n := strings.Count(out, "__alpaca_fake_image"); n != 2 {
		t.Errorf("got %d fake images, want 2", n)
	}
	if !strings.Contains(out, `rel="shortcut icon"`) {
		t.Errorf("missing favicon backstop, got %s", out)
	}
	if !strings.Contains(out, "<!--") {
		t.Errorf("expected a trailing HTML comment, got %s", out)
	}
	if htmlTarget%100 != 0 {
		t.Errorf("html target %d not a multiple of obj_size 100", htmlTarget)
	}
}

func TestCoordinate_DeterministicSingletonLeavesCountsAndSizesUnchanged(t *testing.T) {
	input := []byte(`<html><body><img src="/a.png"></body></html>`)
	doc, _ := domwalk.Parse(input)
	files := map[string][]byte{"/var/www/a.png": make([]byte, 37)}
	read := func(fsPath string) ([]byte, error) {
		data, ok := files[fsPath]
		if !ok {
			return nil, errors.New("nf")
		}
		return data, nil
	}

	objects := domwalk.EnumerateObjects(doc, "/var/www", "/index.html", 0, read)
	serialized := domwalk.Serialize(doc)

	req := &Request{ObjNum: 1, ObjSize: 1, MaxObjSize: 1}
	htmlTarget, err := Coordinate(req, doc, objects, len(serialized))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *objects[0].TargetSize != 37 {
		t.Errorf("got target size %d, want unchanged 37", *objects[0].TargetSize)
	}
	if want := len(domwalk.Serialize(doc)) + 7; htmlTarget != want {
		t.Errorf("got html target %d, want %d", htmlTarget, want)
	}
	if strings.Contains(string(domwalk.Serialize(doc)), "__alpaca_fake_image") {
		t.Errorf("obj_num=1 should inject no fakes")
	}
}

// S6: a forced N_target of 1 on a 3-object page inlines the 2 largest
// objects as data URIs and leaves the smallest annotated with a padding
// query. Distribution specs are custom ".dist" files so the outcome
// doesn't depend on the process-wide PRNG.
func TestCoordinate_S6_ProbabilisticInliningForcedToOne(t *testing.T) {
	dir := t.TempDir()
	numDist := filepath.Join(dir, "obj_num.dist")
	writeDistFile(t, numDist, "1.0 1\n")
	sizeDist := filepath.Join(dir, "obj_size.dist")
	writeDistFile(t, sizeDist, "1.0 1000\n")

	input := []byte(`<html><body><img src="/a.png"><img src="/b.png"><img src="/c.png"></body></html>`)
	doc, _ := domwalk.Parse(input)
	files := map[string][]byte{
		"/var/www/a.png": make([]byte, 50),
		"/var/www/b.png": make([]byte, 30),
		"/var/www/c.png": make([]byte, 10),
	}
	read := func(fsPath string) ([]byte, error) {
		data, ok := files[fsPath]
		if !ok {
			return nil, errors.New("nf")
		}
		return data, nil
	}

	objects := domwalk.EnumerateObjects(doc, "/var/www", "/index.html", 0, read)
	serialized := domwalk.Serialize(doc)

	req := &Request{
		Probabilistic:   true,
		InliningEnabled: true,
		DistObjNum:      numDist,
		DistObjSize:     sizeDist,
		DistHTMLSize:    "",
	}
	_, err := Coordinate(req, doc, objects, len(serialized))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := string(domwalk.Serialize(doc))
	if strings.Contains(out, `src="/a.png`) || strings.Contains(out, `src="/b.png`) {
		t.Errorf("expected the two largest objects inlined away, got %s", out)
	}
	if !strings.Contains(out, "data:image/png;charset=utf-8;base64,") {
		t.Errorf("expected at least one data URI, got %s", out)
	}
	if !strings.Contains(out, `src="/c.png?alpaca-padding=`) {
		t.Errorf("expected the surviving object annotated, got %s", out)
	}
}

func TestCoordinate_AbortOnInvalidDistSpecLeavesDocSerializable(t *testing.T) {
	input := []byte(`<html><body><img src="/a.png"></body></html>`)
	doc, _ := domwalk.Parse(input)
	read := func(string) ([]byte, error) { return []byte("x"), nil }
	objects := domwalk.EnumerateObjects(doc, "/var/www", "/index.html", 0, read)
	serialized := domwalk.Serialize(doc)

	req := &Request{Probabilistic: true, DistObjNum: "NotAFamily/1,2"}
	_, err := Coordinate(req, doc, objects, len(serialized))
	if err == nil {
		t.Fatal("expected an error for an invalid distribution spec")
	}
	if !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("got %v, want ErrInvalidSpec", err)
	}
}

// S2/S3 at the morph_object entry point.
func TestMorphObject_S2PadsCSSObject(t *testing.T) {
	out := MorphObject(ObjectRequest{
		Content:   make([]byte, 10),
		IsCSSOrJS: true,
		Query:     "?alpaca-padding=20",
	})
	if len(out) != 10 {
		t.Fatalf("got %d bytes, want 10 (the padding delta, not current+delta)", len(out))
	}
	if !strings.HasPrefix(string(out), "/*") || !strings.HasSuffix(string(out), "*/") {
		t.Errorf("expected a CSS comment container, got %q", out)
	}
}

func TestMorphObject_S3TooSmallReturnsEmpty(t *testing.T) {
	content := make([]byte, 10)
	out := MorphObject(ObjectRequest{
		Content:   content,
		IsCSSOrJS: true,
		Query:     "?alpaca-padding=12",
	})
	if len(out) != 0 {
		t.Fatalf("got %d bytes, want an empty delta when the container can't fit", len(out))
	}
}

func TestMorphObject_NoQueryReturnsEmpty(t *testing.T) {
	out := MorphObject(ObjectRequest{Content: []byte("hello"), Query: ""})
	if len(out) != 0 {
		t.Errorf("got %q, want an empty delta", out)
	}
}

func TestGetHTMLRequiredFiles(t *testing.T) {
	input := []byte(`<html><body><img src="/a.png"><script src="/app.js"></script></body></html>`)
	got, err := GetHTMLRequiredFiles(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestGetRequiredCSSFiles(t *testing.T) {
	input := []byte(`<html><head><link rel="stylesheet" href="/s.css"></head></html>`)
	got, err := GetRequiredCSSFiles(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "/s.css" {
		t.Fatalf("got %v", got)
	}
}

func TestInlineCSSContent(t *testing.T) {
	input := []byte(`<html><head><link rel="stylesheet" href="/s.css"></head></html>`)
	out, err := InlineCSSContent(input, "/var/www", func(fsPath string) ([]byte, error) {
		if fsPath != "/var/www/s.css" {
			t.Fatalf("unexpected path %q", fsPath)
		}
		return []byte("body{color:red}"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "body{color:red}") {
		t.Errorf("got %s", out)
	}
	if strings.Contains(string(out), "<link") {
		t.Errorf("expected the link to be replaced, got %s", out)
	}
}

func writeDistFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
