// Package ppath implements the strongly-typed path model: absolute/relative
// paths tagged with a node kind (file, dir, symlink), compared by their NFC
// normal form while keeping the original bytes for display.
package ppath

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Abs and Rel tag a Path as absolute or relative.
type Abs struct{}
type Rel struct{}

// File, Dir and Symlink tag a Path by the kind of node it names.
type File struct{}
type Dir struct{}
type Symlink struct{}

// Path is a validated path string tagged by anchor K and kind T. The zero
// value is not a valid Path; construct with NewAbs/NewRel or the Add/Sub
// helpers.
type Path[K any, T any] struct {
	raw  string
	norm string
}

var driveLetter = regexp.MustCompile(`^[A-Za-z]:`)
var urlScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:/`)

func isAbsRoot(s string) bool {
	switch {
	case strings.HasPrefix(s, "/"):
		return true
	case driveLetter.MatchString(s):
		return true
	case urlScheme.MatchString(s):
		return true
	default:
		return false
	}
}

func validate(raw string, wantAbs bool) error {
	if strings.Contains(raw, "\\") {
		return fmt.Errorf("ppath: %q contains a backslash, internal separator is /", raw)
	}
	if raw != "/" && strings.HasSuffix(raw, "/") {
		return fmt.Errorf("ppath: %q has a trailing /", raw)
	}
	abs := isAbsRoot(raw)
	if wantAbs && !abs {
		return fmt.Errorf("ppath: %q is not absolute", raw)
	}
	if !wantAbs && abs {
		return fmt.Errorf("ppath: %q must be relative", raw)
	}
	return nil
}

func build[K any, T any](raw string, wantAbs bool) (Path[K, T], error) {
	if err := validate(raw, wantAbs); err != nil {
		return Path[K, T]{}, err
	}
	return Path[K, T]{raw: raw, norm: norm.NFC.String(raw)}, nil
}

// NewAbs parses an absolute path of kind T.
func NewAbs[T any](raw string) (Path[Abs, T], error) {
	return build[Abs, T](raw, true)
}

// NewRel parses a relative path of kind T.
func NewRel[T any](raw string) (Path[Rel, T], error) {
	return build[Rel, T](raw, false)
}

// MustAbs parses raw, panicking on error. Intended for constants/tests.
func MustAbs[T any](raw string) Path[Abs, T] {
	p, err := NewAbs[T](raw)
	if err != nil {
		panic(err)
	}
	return p
}

// MustRel parses raw, panicking on error. Intended for constants/tests.
func MustRel[T any](raw string) Path[Rel, T] {
	p, err := NewRel[T](raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original, un-normalized bytes for display.
func (p Path[K, T]) String() string { return p.raw }

// Equal reports whether p and other name the same path under NFC
// normalization, regardless of the original byte representation.
func (p Path[K, T]) Equal(other Path[K, T]) bool { return p.norm == other.norm }

// NormKey returns the NFC-normalized form, suitable as a map key.
func (p Path[K, T]) NormKey() string { return p.norm }

// IsZero reports whether p is the unconstructed zero value.
func (p Path[K, T]) IsZero() bool { return p.raw == "" && p.norm == "" }

// Depth returns the number of path components below the root. The ops
// package layers directories with its own depth count over relative path
// strings and does not call this method.
func (p Path[K, T]) Depth() int {
	trimmed := strings.Trim(stripRoot(p.raw), "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

func stripRoot(s string) string {
	if m := urlScheme.FindString(s); m != "" {
		return s[len(m):]
	}
	if driveLetter.MatchString(s) {
		return s[2:]
	}
	return s
}

// Add joins an absolute directory with a relative path of kind T, producing
// an absolute path of the same kind.
func Add[T any](base Path[Abs, Dir], rel Path[Rel, T]) Path[Abs, T] {
	joined := joinRaw(base.raw, rel.raw)
	return Path[Abs, T]{raw: joined, norm: norm.NFC.String(joined)}
}

func joinRaw(base, rel string) string {
	if base == "/" {
		return "/" + rel
	}
	return base + "/" + rel
}

// Sub computes the relative path of p underneath base. p must lie within
// base's subtree; otherwise an error is returned.
func Sub[T any](p Path[Abs, T], base Path[Abs, Dir]) (Path[Rel, T], error) {
	prefix := base.raw
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(p.raw, prefix) {
		return Path[Rel, T]{}, fmt.Errorf("ppath: %q is not under %q", p.raw, base.raw)
	}
	rel := strings.TrimPrefix(p.raw, prefix)
	return build[Rel, T](rel, false)
}

// SubRel computes the absolute directory that, joined with rel, equals p.
// It is the inverse of Add: given p = base + rel, SubRel(p, rel) == base.
func SubRel[T any](p Path[Abs, T], rel Path[Rel, T]) (Path[Abs, Dir], error) {
	suffix := "/" + rel.raw
	if !strings.HasSuffix(p.raw, suffix) {
		return Path[Abs, Dir]{}, fmt.Errorf("ppath: %q does not end with %q", p.raw, rel.raw)
	}
	base := strings.TrimSuffix(p.raw, suffix)
	if base == "" {
		base = "/"
	}
	return build[Abs, Dir](base, true)
}

// PushExt appends ext (e.g. ".gz") to a file path's final component.
func PushExt[K any](p Path[K, File], ext string) Path[K, File] {
	raw := p.raw + ext
	return Path[K, File]{raw: raw, norm: norm.NFC.String(raw)}
}

// PopExtIf strips ext from a file path's final component if present,
// reporting whether it did.
func PopExtIf[K any](p Path[K, File], ext string) (Path[K, File], bool) {
	if !strings.HasSuffix(p.raw, ext) {
		return p, false
	}
	raw := strings.TrimSuffix(p.raw, ext)
	return Path[K, File]{raw: raw, norm: norm.NFC.String(raw)}, true
}

// Parent returns the directory containing p.
func Parent[K any, T any](p Path[K, T]) Path[K, Dir] {
	idx := strings.LastIndex(p.raw, "/")
	var raw string
	switch {
	case idx < 0:
		raw = ""
	case idx == 0:
		raw = "/"
	default:
		raw = p.raw[:idx]
	}
	return Path[K, Dir]{raw: raw, norm: norm.NFC.String(raw)}
}

// Base returns the final path component.
func (p Path[K, T]) Base() string {
	idx := strings.LastIndex(p.raw, "/")
	if idx < 0 {
		return p.raw
	}
	return p.raw[idx+1:]
}
