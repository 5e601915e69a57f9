package padding

import (
	"bytes"
	"testing"
)

func TestHTML_PadsToExactTarget(t *testing.T) {
	content := []byte("<html></html>")
	target := len(content) + 50
	out := HTML(content, target)
	if len(out) != target {
		t.Fatalf("len(out) = %d, want %d", len(out), target)
	}
	if !bytes.HasPrefix(out[len(content):], []byte(htmlCommentStart)) {
		t.Errorf("padding should start with %q", htmlCommentStart)
	}
	if !bytes.HasSuffix(out, []byte(htmlCommentEnd)) {
		t.Errorf("padding should end with %q", htmlCommentEnd)
	}
}

func TestHTML_BelowMinimum_ReturnsUnchanged(t *testing.T) {
	content := []byte("<html></html>")
	out := HTML(content, len(content)+3) // below the 7-byte comment overhead
	if !bytes.Equal(out, content) {
		t.Errorf("expected content unchanged, got %q", out)
	}
}

func TestObject_CSS_ExactSize(t *testing.T) {
	// S2: content_type=text/css, size=10, target=20.
	out := Object(true, 10, 20)
	if len(out) != 10 {
		t.Fatalf("len(out) = %d, want 10", len(out))
	}
	if !bytes.HasPrefix(out, []byte(cssCommentStart)) {
		t.Errorf("expected prefix %q, got %q", cssCommentStart, out)
	}
	if !bytes.HasSuffix(out, []byte(cssCommentEnd)) {
		t.Errorf("expected suffix %q, got %q", cssCommentEnd, out)
	}
	middle := out[len(cssCommentStart) : len(out)-len(cssCommentEnd)]
	if len(middle) != 6 {
		t.Errorf("middle length = %d, want 6", len(middle))
	}
}

func TestObject_CSS_TooSmallForDelimiters(t *testing.T) {
	// S3: size=10, target=12 -> 10+4 > 12, no padding possible.
	out := Object(true, 10, 12)
	if out != nil {
		t.Errorf("expected nil, got %q", out)
	}
}

func TestObject_Binary_ExactLength(t *testing.T) {
	out := Object(false, 100, 150)
	if len(out) != 50 {
		t.Fatalf("len(out) = %d, want 50", len(out))
	}
}

func TestObject_TargetNotGreater_ReturnsEmpty(t *testing.T) {
	if out := Object(false, 100, 100); out != nil {
		t.Errorf("expected nil when target == current, got %q", out)
	}
	if out := Object(false, 100, 50); out != nil {
		t.Errorf("expected nil when target < current, got %q", out)
	}
}

func TestMinObjectPadding(t *testing.T) {
	if got := MinObjectPadding(true); got != 4 {
		t.Errorf("MinObjectPadding(true) = %d, want 4", got)
	}
	if got := MinObjectPadding(false); got != 0 {
		t.Errorf("MinObjectPadding(false) = %d, want 0", got)
	}
}
