// Package fsabs defines the uniform filesystem capability set that local,
// WebDAV and FTP backends implement, plus the block-size negotiation used to
// pick an I/O buffer size between two filesystems.
package fsabs

import (
	"errors"
	"fmt"
	"io"

	"github.com/zarniwp/cuba-go/internal/ppath"
)

// SymlinkKind classifies what a symlink points at.
type SymlinkKind int

const (
	SymlinkUnknown SymlinkKind = iota
	SymlinkFile
	SymlinkDir
)

// SymlinkMeta records a symlink's target.
type SymlinkMeta struct {
	TargetPath string
	TargetKind SymlinkKind
}

// Meta is filesystem metadata for one path. Created/Modified are absent
// (Valid=false) when the backend can't report them.
type Meta struct {
	Created  Instant
	Modified Instant
	Size     *int64
	Symlink  *SymlinkMeta
}

// Instant is an optional wall-clock timestamp.
type Instant struct {
	Unix  int64
	Valid bool
}

// BlockSize describes a backend's preferred I/O chunk size.
type BlockSize struct {
	Min         *int
	Recommended int
	Max         *int
}

// Choose picks the I/O buffer size between two filesystems: the larger of
// the two recommended sizes, clamped to [max(mins), min(maxes)].
func Choose(src, dst BlockSize) int {
	size := src.Recommended
	if dst.Recommended > size {
		size = dst.Recommended
	}
	if src.Min != nil && *src.Min > size {
		size = *src.Min
	}
	if dst.Min != nil && *dst.Min > size {
		size = *dst.Min
	}
	if src.Max != nil && *src.Max < size {
		size = *src.Max
	}
	if dst.Max != nil && *dst.Max < size {
		size = *dst.Max
	}
	return size
}

// Error kinds surfaced by a Filesystem implementation. Operation-identifying
// fields let callers report which path failed without string-parsing.
var (
	ErrNotConnected  = errors.New("fsabs: not connected")
	ErrNotSupported  = errors.New("fsabs: operation not supported")
)

// OpError wraps a backend failure with the path it occurred on.
type OpError struct {
	Op    string
	Path  string
	Cause error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("fsabs: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *OpError) Unwrap() error { return e.Cause }

// WriteSink is the byte sink returned by WriteData. Finish blocks until the
// data is durably queued (e.g. an HTTP PUT's response has been observed) and
// surfaces any error encountered by a backend's background writer.
type WriteSink interface {
	io.Writer
	Finish() error
}

// Visitor is called once per path discovered during WalkDirRec. For a
// directory, returning false means "do not descend". The return value is
// ignored for files and symlinks.
type Visitor func(p ppath.UPath[ppath.Abs]) bool

// OnError is invoked when an enumeration error occurs for a path; walking
// continues regardless of the return value.
type OnError func(path string, err error)

// Filesystem is the capability set a backend exposes against absolute typed
// paths. All operations except Connect/Disconnect/IsConnected/BlockSize
// require a prior successful Connect.
type Filesystem interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	BlockSize() BlockSize

	Meta(path ppath.UPath[ppath.Abs]) (Meta, error)
	ListDir(dir ppath.Path[ppath.Abs, ppath.Dir]) ([]ppath.UPath[ppath.Abs], error)
	WalkDirRec(root ppath.Path[ppath.Abs, ppath.Dir], visit Visitor, onError OnError)

	RemoveFile(path ppath.Path[ppath.Abs, ppath.File]) error
	RemoveDir(path ppath.Path[ppath.Abs, ppath.Dir]) error
	Mkdir(dir ppath.Path[ppath.Abs, ppath.Dir]) error
	Mklink(sym ppath.Path[ppath.Abs, ppath.Symlink], target SymlinkMeta) error

	ReadData(file ppath.Path[ppath.Abs, ppath.File]) (io.ReadCloser, error)
	WriteData(file ppath.Path[ppath.Abs, ppath.File]) (WriteSink, error)
}

// WalkDirRec is the default recursive-walk implementation built on ListDir,
// shared by backends that have no cheaper native recursive listing.
func WalkDirRec(fs Filesystem, root ppath.Path[ppath.Abs, ppath.Dir], visit Visitor, onError OnError) {
	entries, err := fs.ListDir(root)
	if err != nil {
		onError(root.String(), err)
		return
	}
	for _, entry := range entries {
		switch entry.Kind() {
		case ppath.UDir:
			descend := visit(entry)
			if descend {
				WalkDirRec(fs, entry.AsDir(), visit, onError)
			}
		default:
			visit(entry)
		}
	}
}
