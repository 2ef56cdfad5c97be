package pipeline

import (
	"io"

	"github.com/zarniwp/cuba-go/internal/ppath"
	"lukechampine.com/blake3"
)

// SignatureTap feeds every byte read through a BLAKE3-256 hasher without
// altering them; the digest is published into out only once the returned
// reader is Closed. Callers must read the stream is Close it before
// reading *out, mirroring the Rust HashingReader's Drop-publishes-digest
// contract — Go has no deterministic Drop, so Close is the explicit
// equivalent. destPath is never mutated (hashing doesn't change the wire
// format).
func SignatureTap(out *[32]byte) Processor {
	return func(r io.Reader, _ *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
		h, err := blake3.New(32, nil)
		if err != nil {
			return nil, err
		}
		return &hashingReader{r: r, h: h, out: out}, nil
	}
}

type hashingReader struct {
	r   io.Reader
	h   *blake3.Hasher
	out *[32]byte
}

func (h *hashingReader) Read(b []byte) (int, error) {
	n, err := h.r.Read(b)
	if n > 0 {
		h.h.Write(b[:n])
	}
	return n, err
}

func (h *hashingReader) Close() error {
	sum := h.h.Sum(nil)
	copy(h.out[:], sum)
	if closer, ok := h.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
