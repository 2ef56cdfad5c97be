// Package pipeline implements the C4 composable stream processors: gzip
// encode/decode, AEAD encrypt/decrypt (the Age format), and a BLAKE3
// signature tap. Each processor wraps a byte reader and produces a new byte
// reader; composition is left-to-right, read-side-first, exactly mirroring
// the Rust original's DataProcessor closures (process_data/data_processor.rs).
package pipeline

import (
	"compress/gzip"
	"io"

	"github.com/zarniwp/cuba-go/internal/ppath"
)

// Processor wraps r, optionally mutating destPath (pushing/popping a
// filename suffix such as ".gz"/".age") to reflect what the wrapped stream
// represents on disk. destPath may be nil when no destination path is being
// tracked (e.g. the source-signature pass, which writes to dev-null).
type Processor func(r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error)

// Compose applies processors in order, read-side-first: the first
// processor wraps the rawest reader, the last processor's output is what
// the transfer loop actually reads from.
func Compose(processors []Processor, r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
	current := io.NopCloser(r)
	for _, proc := range processors {
		next, err := proc(current, destPath)
		if err != nil {
			current.Close()
			return nil, err
		}
		current = next
	}
	return current, nil
}

// pipeReadCloser adapts a writer-oriented transform (gzip.Writer, age's
// Encrypt) into a reader by running it in a goroutine against an io.Pipe.
// Close waits for that goroutine and surfaces its error, mirroring the
// FSWrite finish()/Drop-join contract used throughout the Rust original.
type pipeReadCloser struct {
	pr   *io.PipeReader
	done <-chan error
}

func (p *pipeReadCloser) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *pipeReadCloser) Close() error {
	closeErr := p.pr.Close()
	writeErr := <-p.done
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// newPipeline spawns a goroutine that copies src into a writer produced by
// wrap, closing the writer (and signaling completion) when src is
// exhausted. wrap receives the pipe's write end.
func newPipeline(src io.Reader, wrap func(w io.Writer) (io.WriteCloser, error)) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	dst, err := wrap(pw)
	if err != nil {
		pw.Close()
		pr.Close()
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(dst, src)
		closeErr := dst.Close()
		if copyErr != nil {
			pw.CloseWithError(copyErr)
			done <- copyErr
			return
		}
		if closeErr != nil {
			pw.CloseWithError(closeErr)
			done <- closeErr
			return
		}
		done <- pw.Close()
	}()

	return &pipeReadCloser{pr: pr, done: done}, nil
}

// GzipEncode appends ".gz" to destPath and yields the deflate-compressed
// byte stream of r at gzip's default level.
func GzipEncode(r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
	out, err := newPipeline(r, func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
	if err != nil {
		return nil, err
	}
	if destPath != nil {
		*destPath = ppath.PushExt(*destPath, ".gz")
	}
	return out, nil
}

// GzipDecode strips a trailing ".gz" from destPath if present and yields
// the decompressed byte stream of r.
func GzipDecode(r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	if destPath != nil {
		if popped, ok := ppath.PopExtIf(*destPath, ".gz"); ok {
			*destPath = popped
		}
	}
	return gzr, nil
}
