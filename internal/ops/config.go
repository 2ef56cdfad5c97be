// Package ops implements the C8 operations — backup, restore, verify,
// clean — each following the shared skeleton from spec.md §4.5: start the
// run state, connect the filesystem(s), read the manifest, enumerate and
// dispatch tasks through the C6 worker pool, then (if not cancelled) write
// the manifest back and disconnect. Restore is the exception to the
// write-back step: it never rewrites the manifest.
package ops

import (
	"fmt"

	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/ppath"
	"github.com/zarniwp/cuba-go/internal/runstate"
)

// Mount pairs a filesystem with the absolute root directory an operation
// works under.
type Mount struct {
	FS   fsabs.Filesystem
	Root ppath.Path[ppath.Abs, ppath.Dir]
}

// Config holds parameters shared by every operation.
type Config struct {
	Threads  int
	Include  []string
	Exclude  []string
	RunState *runstate.RunState
	Bus      *message.Bus
}

func (c Config) threads() int {
	if c.Threads <= 0 {
		return 1
	}
	return c.Threads
}

func (c Config) matchers() (include, exclude *Matcher) {
	return NewMatcher(c.Include), NewMatcher(c.Exclude)
}

func connectMount(m Mount) error {
	if err := m.FS.Connect(); err != nil {
		return fmt.Errorf("ops: connect %s: %w", m.Root.String(), err)
	}
	return nil
}

func disconnectMount(m Mount) {
	_ = m.FS.Disconnect()
}
