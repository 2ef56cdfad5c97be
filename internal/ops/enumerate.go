package ops

import (
	"fmt"

	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// node is one discovered filesystem entry: its absolute tag-erased path
// plus the relative path (display form) used as a manifest key.
type node struct {
	abs ppath.UPath[ppath.Abs]
	rel string
}

// relOf computes the path of u relative to root, dispatching on kind since
// Sub is typed by File/Dir/Symlink.
func relOf(root ppath.Path[ppath.Abs, ppath.Dir], u ppath.UPath[ppath.Abs]) (string, error) {
	switch u.Kind() {
	case ppath.UDir:
		rel, err := ppath.Sub(u.AsDir(), root)
		if err != nil {
			return "", err
		}
		return rel.String(), nil
	case ppath.UFile:
		rel, err := ppath.Sub(u.AsFile(), root)
		if err != nil {
			return "", err
		}
		return rel.String(), nil
	case ppath.USymlink:
		rel, err := ppath.Sub(u.AsSymlink(), root)
		if err != nil {
			return "", err
		}
		return rel.String(), nil
	default:
		return "", fmt.Errorf("ops: unknown kind for %s", u.String())
	}
}

// enumerateSource walks root and partitions every discovered entry into
// dirs/files/symlinks, applying include/exclude matchers: an excluded
// directory is not descended into, and a configured include matcher both
// limits descent (IncludeDir) and final queue membership (Match).
func enumerateSource(fs fsabs.Filesystem, root ppath.Path[ppath.Abs, ppath.Dir], include, exclude *Matcher, onError fsabs.OnError) (dirs, files, symlinks []node) {
	fs.WalkDirRec(root, func(u ppath.UPath[ppath.Abs]) bool {
		rel, err := relOf(root, u)
		if err != nil {
			onError(u.String(), err)
			return false
		}
		if exclude.Match(rel) {
			return false
		}

		switch u.Kind() {
		case ppath.UDir:
			if rel == "" {
				return true // root itself is a descent point, never a task
			}
			if !include.IncludeDir(rel) {
				return false
			}
			dirs = append(dirs, node{abs: u, rel: rel})
			return true
		case ppath.UFile:
			if include != nil && !include.Match(rel) {
				return false
			}
			files = append(files, node{abs: u, rel: rel})
		case ppath.USymlink:
			if include != nil && !include.Match(rel) {
				return false
			}
			symlinks = append(symlinks, node{abs: u, rel: rel})
		}
		return false
	}, onError)
	return dirs, files, symlinks
}
