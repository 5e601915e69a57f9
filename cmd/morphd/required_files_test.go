package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRequiredFiles_ListsLocalReferences(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	html := `<html><head><link rel="stylesheet" href="/style.css"></head><body><img src="/a.png"><script src="/app.js"></script></body></html>`
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t, func() {
		if err := runRequiredFiles(nil, []string{page}); err != nil {
			t.Errorf("runRequiredFiles: %v", err)
		}
	})

	for _, want := range []string{"/style.css", "/a.png", "/app.js"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRunRequiredFiles_MissingFile(t *testing.T) {
	err := runRequiredFiles(nil, []string{"/nonexistent/page.html"})
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
