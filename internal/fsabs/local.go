package fsabs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/zarniwp/cuba-go/internal/ppath"
)

// Local wraps the OS filesystem. Block size 4 KiB, matching the teacher's
// and the Rust original's local backend default.
type Local struct {
	connected bool
}

func NewLocal() *Local { return &Local{} }

func (l *Local) Connect() error    { l.connected = true; return nil }
func (l *Local) Disconnect() error { l.connected = false; return nil }
func (l *Local) IsConnected() bool { return l.connected }

func (l *Local) BlockSize() BlockSize {
	return BlockSize{Recommended: 4096}
}

func (l *Local) Meta(path ppath.UPath[ppath.Abs]) (Meta, error) {
	if !l.connected {
		return Meta{}, ErrNotConnected
	}
	info, err := os.Lstat(path.String())
	if err != nil {
		return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: err}
	}

	var meta Meta
	meta.Modified = Instant{Unix: info.ModTime().Unix(), Valid: true}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		if path.Kind() != ppath.USymlink {
			return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: errKindMismatch}
		}
		target, err := os.Readlink(path.String())
		if err != nil {
			return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: err}
		}
		kind := SymlinkUnknown
		if targetInfo, err := os.Stat(path.String()); err == nil {
			if targetInfo.IsDir() {
				kind = SymlinkDir
			} else {
				kind = SymlinkFile
			}
		}
		meta.Symlink = &SymlinkMeta{TargetPath: target, TargetKind: kind}
	case info.IsDir():
		if path.Kind() != ppath.UDir {
			return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: errKindMismatch}
		}
	default:
		if path.Kind() != ppath.UFile {
			return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: errKindMismatch}
		}
		size := info.Size()
		meta.Size = &size
	}
	return meta, nil
}

var errKindMismatch = &kindMismatchError{}

type kindMismatchError struct{}

func (*kindMismatchError) Error() string { return "on-disk kind does not match requested path kind" }

func (l *Local) ListDir(dir ppath.Path[ppath.Abs, ppath.Dir]) ([]ppath.UPath[ppath.Abs], error) {
	if !l.connected {
		return nil, ErrNotConnected
	}
	entries, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
	}

	var out []ppath.UPath[ppath.Abs]
	for _, entry := range entries {
		full := filepath.ToSlash(filepath.Join(dir.String(), entry.Name()))
		info, err := entry.Info()
		if err != nil {
			return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
		}
		var kind ppath.UKind
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			kind = ppath.USymlink
		case info.IsDir():
			kind = ppath.UDir
		default:
			kind = ppath.UFile
		}
		u, err := ppath.NewU[ppath.Abs](full, kind)
		if err != nil {
			return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
		}
		out = append(out, u)
	}
	return out, nil
}

func (l *Local) WalkDirRec(root ppath.Path[ppath.Abs, ppath.Dir], visit Visitor, onError OnError) {
	WalkDirRec(l, root, visit, onError)
}

func (l *Local) RemoveFile(path ppath.Path[ppath.Abs, ppath.File]) error {
	if !l.connected {
		return ErrNotConnected
	}
	if err := os.Remove(path.String()); err != nil {
		return &OpError{Op: "remove_file", Path: path.String(), Cause: err}
	}
	return nil
}

func (l *Local) RemoveDir(path ppath.Path[ppath.Abs, ppath.Dir]) error {
	if !l.connected {
		return ErrNotConnected
	}
	if err := os.RemoveAll(path.String()); err != nil {
		return &OpError{Op: "remove_dir", Path: path.String(), Cause: err}
	}
	return nil
}

func (l *Local) Mkdir(dir ppath.Path[ppath.Abs, ppath.Dir]) error {
	if !l.connected {
		return ErrNotConnected
	}
	if err := os.Mkdir(dir.String(), 0o755); err != nil {
		return &OpError{Op: "mkdir", Path: dir.String(), Cause: err}
	}
	return nil
}

func (l *Local) Mklink(sym ppath.Path[ppath.Abs, ppath.Symlink], target SymlinkMeta) error {
	if !l.connected {
		return ErrNotConnected
	}
	if err := os.Symlink(target.TargetPath, sym.String()); err != nil {
		return &OpError{Op: "mklink", Path: sym.String(), Cause: err}
	}
	return nil
}

func (l *Local) ReadData(file ppath.Path[ppath.Abs, ppath.File]) (io.ReadCloser, error) {
	if !l.connected {
		return nil, ErrNotConnected
	}
	f, err := os.Open(file.String())
	if err != nil {
		return nil, &OpError{Op: "read_data", Path: file.String(), Cause: err}
	}
	return f, nil
}

func (l *Local) WriteData(file ppath.Path[ppath.Abs, ppath.File]) (WriteSink, error) {
	if !l.connected {
		return nil, ErrNotConnected
	}
	f, err := os.Create(file.String())
	if err != nil {
		return nil, &OpError{Op: "write_data", Path: file.String(), Cause: err}
	}
	return &localSink{f: f}, nil
}

type localSink struct{ f *os.File }

func (s *localSink) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *localSink) Finish() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
