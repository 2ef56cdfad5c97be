package fsabs

import (
	"errors"
	"io"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// FTPConfig configures an FTP mount. Addr is "host:port".
type FTPConfig struct {
	Addr     string
	User     string
	Password string
	TimeoutSec int
}

// FTP is a filesystem backend over github.com/jlaffaye/ftp, recovering the
// capability the teacher's core/network.go stub named ("ftp://") but never
// implemented. Block size 32 KiB. Symlinks are unsupported — FTP has no
// portable symlink primitive.
//
// The underlying connection is single-threaded (the FTP protocol
// multiplexes control and data on one stream per conn), so all calls are
// serialized behind a mutex; data connections (RETR/STOR) are opened and
// drained per call.
type FTP struct {
	cfg  FTPConfig
	mu   sync.Mutex
	conn *ftp.ServerConn
}

func NewFTP(cfg FTPConfig) *FTP { return &FTP{cfg: cfg} }

func (f *FTP) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	timeout := time.Duration(f.cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conn, err := ftp.Dial(f.cfg.Addr, ftp.DialWithTimeout(timeout))
	if err != nil {
		return err
	}
	if f.cfg.User != "" {
		if err := conn.Login(f.cfg.User, f.cfg.Password); err != nil {
			conn.Quit()
			return err
		}
	}
	f.conn = conn
	return nil
}

func (f *FTP) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Quit()
	f.conn = nil
	return err
}

func (f *FTP) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn != nil
}

func (f *FTP) BlockSize() BlockSize {
	return BlockSize{Recommended: 32 * 1024}
}

func (f *FTP) Meta(path ppath.UPath[ppath.Abs]) (Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return Meta{}, ErrNotConnected
	}
	if path.Kind() == ppath.USymlink {
		return Meta{}, ErrNotSupported
	}

	meta := Meta{}
	if path.Kind() == ppath.UFile {
		size, err := f.conn.FileSize(path.String())
		if err != nil {
			return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: err}
		}
		meta.Size = &size
	}
	if modTime, err := f.conn.GetTime(path.String()); err == nil {
		meta.Modified = Instant{Unix: modTime.Unix(), Valid: true}
	}
	return meta, nil
}

func (f *FTP) ListDir(dir ppath.Path[ppath.Abs, ppath.Dir]) ([]ppath.UPath[ppath.Abs], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil, ErrNotConnected
	}
	entries, err := f.conn.List(dir.String())
	if err != nil {
		return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
	}

	var out []ppath.UPath[ppath.Abs]
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		full := strings.TrimRight(dir.String(), "/") + "/" + entry.Name
		if dir.String() == "/" {
			full = "/" + entry.Name
		}
		kind := ppath.UFile
		if entry.Type == ftp.EntryTypeFolder {
			kind = ppath.UDir
		} else if entry.Type == ftp.EntryTypeLink {
			kind = ppath.USymlink
		}
		u, err := ppath.NewU[ppath.Abs](full, kind)
		if err != nil {
			return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *FTP) WalkDirRec(root ppath.Path[ppath.Abs, ppath.Dir], visit Visitor, onError OnError) {
	WalkDirRec(f, root, visit, onError)
}

func (f *FTP) RemoveFile(path ppath.Path[ppath.Abs, ppath.File]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return ErrNotConnected
	}
	if err := f.conn.Delete(path.String()); err != nil {
		return &OpError{Op: "remove_file", Path: path.String(), Cause: err}
	}
	return nil
}

func (f *FTP) RemoveDir(path ppath.Path[ppath.Abs, ppath.Dir]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return ErrNotConnected
	}
	if err := f.conn.RemoveDir(path.String()); err != nil {
		return &OpError{Op: "remove_dir", Path: path.String(), Cause: err}
	}
	return nil
}

// Mkdir tolerates a "directory already exists" reply; callers still fall
// back to Meta() per spec.md §4.5's mkdir-failure rule.
func (f *FTP) Mkdir(dir ppath.Path[ppath.Abs, ppath.Dir]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return ErrNotConnected
	}
	if err := f.conn.MakeDir(dir.String()); err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) && protoErr.Code == 550 {
			return nil
		}
		return &OpError{Op: "mkdir", Path: dir.String(), Cause: err}
	}
	return nil
}

func (f *FTP) Mklink(ppath.Path[ppath.Abs, ppath.Symlink], SymlinkMeta) error {
	return ErrNotSupported
}

func (f *FTP) ReadData(file ppath.Path[ppath.Abs, ppath.File]) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil, ErrNotConnected
	}
	resp, err := f.conn.Retr(file.String())
	if err != nil {
		return nil, &OpError{Op: "read_data", Path: file.String(), Cause: err}
	}
	return resp, nil
}

type ftpSink struct {
	pw   *io.PipeWriter
	done chan error
}

func (s *ftpSink) Write(p []byte) (int, error) { return s.pw.Write(p) }

func (s *ftpSink) Finish() error {
	closeErr := s.pw.Close()
	storErr := <-s.done
	if storErr != nil {
		return storErr
	}
	return closeErr
}

func (f *FTP) WriteData(file ppath.Path[ppath.Abs, ppath.File]) (WriteSink, error) {
	f.mu.Lock()
	if f.conn == nil {
		f.mu.Unlock()
		return nil, ErrNotConnected
	}
	f.mu.Unlock()

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		err := f.conn.Stor(file.String(), pr)
		if err != nil {
			pr.CloseWithError(err)
			done <- &OpError{Op: "write_data", Path: file.String(), Cause: err}
			return
		}
		done <- nil
	}()
	return &ftpSink{pw: pw, done: done}, nil
}
