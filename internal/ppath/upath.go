package ppath

import "golang.org/x/text/unicode/norm"

// UKind is the on-disk node kind discovered by a list/walk operation.
type UKind int

const (
	UFile UKind = iota
	UDir
	USymlink
)

func (k UKind) String() string {
	switch k {
	case UFile:
		return "file"
	case UDir:
		return "dir"
	case USymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// UPath is a tag-erased absolute path carrying its on-disk kind, returned by
// Filesystem.ListDir / WalkDirRec where the kind isn't known until the
// backend resolves it.
type UPath[K any] struct {
	raw  string
	norm string
	kind UKind
}

// NewU constructs a tag-erased path of the given kind.
func NewU[K any](raw string, kind UKind) (UPath[K], error) {
	_, isAbs := any(*new(K)).(Abs)
	if err := validate(raw, isAbs); err != nil {
		return UPath[K]{}, err
	}
	return UPath[K]{raw: raw, norm: norm.NFC.String(raw), kind: kind}, nil
}

func (u UPath[K]) String() string  { return u.raw }
func (u UPath[K]) NormKey() string { return u.norm }
func (u UPath[K]) Kind() UKind     { return u.kind }

// AsFile downcasts to a typed File path. Panics if Kind() != UFile — callers
// must check Kind() first, as the spec requires callers to match on it.
func (u UPath[K]) AsFile() Path[K, File] {
	if u.kind != UFile {
		panic("ppath: AsFile on non-file UPath")
	}
	return Path[K, File]{raw: u.raw, norm: u.norm}
}

func (u UPath[K]) AsDir() Path[K, Dir] {
	if u.kind != UDir {
		panic("ppath: AsDir on non-dir UPath")
	}
	return Path[K, Dir]{raw: u.raw, norm: u.norm}
}

func (u UPath[K]) AsSymlink() Path[K, Symlink] {
	if u.kind != USymlink {
		panic("ppath: AsSymlink on non-symlink UPath")
	}
	return Path[K, Symlink]{raw: u.raw, norm: u.norm}
}

// FromTyped erases the static kind tag of a typed path into a UPath.
func FromTyped[K any](p Path[K, File]) UPath[K] {
	return UPath[K]{raw: p.raw, norm: p.norm, kind: UFile}
}

func FromTypedDir[K any](p Path[K, Dir]) UPath[K] {
	return UPath[K]{raw: p.raw, norm: p.norm, kind: UDir}
}

func FromTypedSymlink[K any](p Path[K, Symlink]) UPath[K] {
	return UPath[K]{raw: p.raw, norm: p.norm, kind: USymlink}
}
