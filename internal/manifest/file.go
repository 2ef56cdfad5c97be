package manifest

import (
	"errors"
	"os"

	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// Load reads the manifest at "<root>/cuba.json.gz" from fs. A missing file
// yields an empty manifest (first run); any other read or codec error
// aborts the caller's operation per spec.md §4.2.
func Load(fs fsabs.Filesystem, root ppath.Path[ppath.Abs, ppath.Dir]) (*TransferredNodes, error) {
	path := ppath.Add(root, ppath.MustRel[ppath.File](FileName))
	r, err := fs.ReadData(path)
	if err != nil {
		if isNotFound(err) {
			return New(), nil
		}
		return nil, err
	}
	defer r.Close()
	return Decode(r)
}

// Save writes the manifest to "<root>/cuba.json.gz" on fs.
func (tn *TransferredNodes) Save(fs fsabs.Filesystem, root ppath.Path[ppath.Abs, ppath.Dir]) error {
	path := ppath.Add(root, ppath.MustRel[ppath.File](FileName))
	sink, err := fs.WriteData(path)
	if err != nil {
		return err
	}
	if err := tn.Encode(sink); err != nil {
		return err
	}
	return sink.Finish()
}

// isNotFound reports whether err is a read_data failure caused by the
// manifest simply not existing yet (a fresh destination), as opposed to a
// real I/O or codec error that must abort the operation.
func isNotFound(err error) bool {
	var opErr *fsabs.OpError
	if !errors.As(err, &opErr) || opErr.Op != "read_data" {
		return false
	}
	return errors.Is(opErr.Cause, os.ErrNotExist)
}
