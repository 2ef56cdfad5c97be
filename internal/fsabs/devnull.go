package fsabs

import (
	"io"

	"github.com/zarniwp/cuba-go/internal/ppath"
)

// DevNull sinks every write and succeeds; Meta, ListDir, the remove/mkdir/
// mklink calls and ReadData fail with ErrNotSupported, and WalkDirRec
// visits nothing. Used by verify and by the source-signature pass to drive
// the transfer loop without producing output.
type DevNull struct {
	connected bool
}

func NewDevNull() *DevNull { return &DevNull{} }

func (d *DevNull) Connect() error    { d.connected = true; return nil }
func (d *DevNull) Disconnect() error { d.connected = false; return nil }
func (d *DevNull) IsConnected() bool { return d.connected }

func (d *DevNull) BlockSize() BlockSize {
	return BlockSize{Recommended: 64 * 1024}
}

func (d *DevNull) Meta(ppath.UPath[ppath.Abs]) (Meta, error) { return Meta{}, ErrNotSupported }

func (d *DevNull) ListDir(ppath.Path[ppath.Abs, ppath.Dir]) ([]ppath.UPath[ppath.Abs], error) {
	return nil, ErrNotSupported
}

func (d *DevNull) WalkDirRec(ppath.Path[ppath.Abs, ppath.Dir], Visitor, OnError) {}

func (d *DevNull) RemoveFile(ppath.Path[ppath.Abs, ppath.File]) error { return ErrNotSupported }
func (d *DevNull) RemoveDir(ppath.Path[ppath.Abs, ppath.Dir]) error   { return ErrNotSupported }
func (d *DevNull) Mkdir(ppath.Path[ppath.Abs, ppath.Dir]) error       { return ErrNotSupported }
func (d *DevNull) Mklink(ppath.Path[ppath.Abs, ppath.Symlink], SymlinkMeta) error {
	return ErrNotSupported
}

func (d *DevNull) ReadData(ppath.Path[ppath.Abs, ppath.File]) (io.ReadCloser, error) {
	return nil, ErrNotSupported
}

func (d *DevNull) WriteData(ppath.Path[ppath.Abs, ppath.File]) (WriteSink, error) {
	if !d.connected {
		return nil, ErrNotConnected
	}
	return &devNullSink{}, nil
}

type devNullSink struct{}

func (*devNullSink) Write(p []byte) (int, error) { return len(p), nil }
func (*devNullSink) Finish() error                { return nil }
