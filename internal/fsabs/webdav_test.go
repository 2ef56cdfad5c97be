package fsabs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// TestHrefNormalizesNFC covers spec.md line 96: two paths that are NFC-equal
// but byte-distinct (macOS-style decomposed "e" + combining acute accent vs.
// precomposed U+00E9) must resolve to the same request URL, or the
// up-to-date/overwrite invariant breaks for this backend.
func TestHrefNormalizesNFC(t *testing.T) {
	w := NewWebDAV(WebDAVConfig{BaseURL: "https://dav.example.com/base"})

	precomposed := ppath.MustAbs[ppath.File]("/café/a.txt")
	decomposed := ppath.MustAbs[ppath.File]("/café/a.txt")

	assert.True(t, precomposed.Equal(decomposed), "paths should be NFC-equal despite differing bytes")
	assert.NotEqual(t, precomposed.String(), decomposed.String(), "raw bytes should still differ")

	got1 := w.href(precomposed.NormKey())
	got2 := w.href(decomposed.NormKey())
	assert.Equal(t, got1, got2, "NFC-equal paths must produce identical WebDAV URLs")
	assert.Equal(t, "https://dav.example.com/base/caf%C3%A9/a.txt", got1)
}
