// Package padding generates filler bytes for the shapes the morphing
// coordinator needs: an HTML comment wrapping the whole document, a CSS/JS
// comment wrapping a single text object, and raw bytes for anything else
// (images, fonts, and the fake-object placeholder).
//
// Every shape keeps its delimiters syntactically inert: an HTML comment
// can't be escaped from by attacker-controlled content because its filler
// is restricted to alphanumerics, and the same holds for CSS/JS comments.
package padding

import (
	"math/rand"

	"alpaca-morph/internal/logger"
)

var log = logger.New("PADDING", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

const (
	htmlCommentStart = "<!--"
	htmlCommentEnd   = "-->"
	cssCommentStart  = "/*"
	cssCommentEnd    = "*/"

	htmlCommentOverhead = len(htmlCommentStart) + len(htmlCommentEnd) // 7
	cssCommentOverhead  = len(cssCommentStart) + len(cssCommentEnd)   // 4
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// HTML appends a trailing HTML comment to content so the result is exactly
// targetSize bytes. If targetSize is smaller than content's length plus the
// comment overhead, it logs a warning and returns content unchanged — the
// caller still serializes and serves the (unpadded) document.
func HTML(content []byte, targetSize int) []byte {
	minSize := len(content) + htmlCommentOverhead
	if targetSize < minSize {
		log.Warnf("html_pad", "target %d below minimum %d, skipping padding", targetSize, minSize)
		return content
	}

	padLen := targetSize - minSize
	out := make([]byte, 0, targetSize)
	out = append(out, content...)
	out = append(out, htmlCommentStart...)
	out = appendAlphanumeric(out, padLen)
	out = append(out, htmlCommentEnd...)
	return out
}

// MinObjectPadding returns the minimum extra bytes a CSS/JS object of this
// kind needs (two two-byte comment delimiters); zero for any other kind.
func MinObjectPadding(isCSSOrJS bool) int {
	if isCSSOrJS {
		return cssCommentOverhead
	}
	return 0
}

// Object returns padding for a single sub-resource: current bytes padded to
// targetSize. isCSSOrJS selects a CSS/JS comment container (alphanumeric
// filler); otherwise uniform random bytes are returned (the binary-blob
// shape used for images and anything else).
//
// Returns an empty slice if padding cannot be applied without corrupting
// the container: targetSize <= currentSize for any kind, or
// currentSize+4 > targetSize for CSS/JS (the comment delimiters alone
// wouldn't fit).
func Object(isCSSOrJS bool, currentSize, targetSize int) []byte {
	if targetSize <= currentSize {
		return nil
	}

	padLen := targetSize - currentSize

	if isCSSOrJS {
		if currentSize+cssCommentOverhead > targetSize {
			return nil
		}
		return cssComment(padLen)
	}

	return binary(padLen)
}

func cssComment(padLen int) []byte {
	inner := padLen - cssCommentOverhead
	out := make([]byte, 0, padLen)
	out = append(out, cssCommentStart...)
	out = appendAlphanumeric(out, inner)
	out = append(out, cssCommentEnd...)
	return out
}

func binary(n int) []byte {
	out := make([]byte, n)
	_, _ = rand.Read(out) //nolint:errcheck // math/rand.Read never errors
	return out
}

func appendAlphanumeric(dst []byte, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, alphanumeric[rand.Intn(len(alphanumeric))])
	}
	return dst
}
