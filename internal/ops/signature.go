package ops

import (
	"io"

	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/pipeline"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// signatureOf drains r through a BLAKE3 signature tap into dev-null and
// returns the digest. Used for the source-signature pass (backup), the
// destination-signature comparison in restore's up-to-date check, and
// verify's decode-then-hash pass.
func signatureOf(r io.ReadCloser) ([32]byte, error) {
	var sig [32]byte
	tapped, err := pipeline.SignatureTap(&sig)(r, nil)
	if err != nil {
		r.Close()
		return sig, err
	}

	sink := fsabs.NewDevNull()
	_ = sink.Connect()
	w, err := sink.WriteData(ppath.Path[ppath.Abs, ppath.File]{})
	if err != nil {
		tapped.Close()
		return sig, err
	}
	if _, err := io.Copy(w, tapped); err != nil {
		tapped.Close()
		return sig, err
	}
	if err := w.Finish(); err != nil {
		tapped.Close()
		return sig, err
	}
	// Close publishes the digest into sig — must happen after the copy
	// above has exhausted r.
	if err := tapped.Close(); err != nil {
		return sig, err
	}
	return sig, nil
}

// signatureOfFile computes the BLAKE3 signature of a file read straight
// off fs, with no decode pipeline applied (backup's source-signature
// pass).
func signatureOfFile(fs fsabs.Filesystem, path ppath.Path[ppath.Abs, ppath.File]) ([32]byte, error) {
	r, err := fs.ReadData(path)
	if err != nil {
		var zero [32]byte
		return zero, err
	}
	return signatureOf(r)
}
