// Package scheduler implements the CLI's `schedule run`/`schedule watch`
// triggers, recovered in spirit from the teacher's core/taskrunner.go
// (cron.Cron + fsnotify.Watcher, per-profile run/pending coalescing)
// generalized from a multi-task registry of arbitrary backup jobs to
// triggers over a single cuba profile name each.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// TriggerKind distinguishes a cron-driven trigger from a filesystem-watch
// one.
type TriggerKind string

const (
	TriggerCron  TriggerKind = "cron"
	TriggerWatch TriggerKind = "watch"
)

// Trigger describes one scheduled profile.
type Trigger struct {
	Profile    string
	Kind       TriggerKind
	CronExpr   string
	WatchPaths []string
	DebounceMs int
}

// Executor runs one profile's backup to completion; the scheduler never
// interprets the error beyond passing it to OnResult, so per-profile
// retry/backoff policy lives with the caller, not here.
type Executor func(profile string) error

// Scheduler manages a set of active triggers, coalescing concurrent
// requests for the same profile into at most one pending re-run.
type Scheduler struct {
	mu       sync.Mutex
	triggers map[string]*triggerState
	executor Executor

	// OnResult, if set, is called after every completed run (scheduled or
	// manual) with the profile name and the executor's error, if any.
	OnResult func(profile string, err error)

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

type triggerState struct {
	trigger Trigger

	cronEntry cron.EntryID

	watcher   *fsnotify.Watcher
	watchDone chan struct{}
	debounce  *time.Timer

	running bool
	pending bool
}

func New(executor Executor) *Scheduler {
	return &Scheduler{
		triggers: make(map[string]*triggerState),
		executor: executor,
		cron:     cron.New(),
	}
}

// Start activates the cron engine and every currently-registered trigger.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.started = true
	s.cron.Start()

	for profile := range s.triggers {
		_ = s.applyLocked(profile)
	}
}

// Stop deactivates every trigger and the cron engine. Runs already in
// flight are not interrupted; they simply finish without rescheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.cron.Stop()
	for profile, st := range s.triggers {
		st.pending = false
		s.stopLocked(profile)
	}
	s.started = false
}

// Add registers or replaces a profile's trigger.
func (s *Scheduler) Add(t Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.triggers[t.Profile]
	if !ok {
		st = &triggerState{trigger: t}
		s.triggers[t.Profile] = st
	} else {
		st.trigger = t
	}
	if s.started {
		return s.applyLocked(t.Profile)
	}
	return nil
}

// Remove deactivates and forgets a profile's trigger.
func (s *Scheduler) Remove(profile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(profile)
	delete(s.triggers, profile)
}

// RunNow triggers an immediate run of profile, subject to the same
// running/pending coalescing as a scheduled trigger.
func (s *Scheduler) RunNow(profile string) {
	s.run(profile)
}

func (s *Scheduler) applyLocked(profile string) error {
	st, ok := s.triggers[profile]
	if !ok {
		return nil
	}
	s.stopLocked(profile)

	switch st.trigger.Kind {
	case TriggerCron:
		entryID, err := s.cron.AddFunc(st.trigger.CronExpr, func() {
			s.run(profile)
		})
		if err != nil {
			return fmt.Errorf("scheduler: %s: %w", profile, err)
		}
		st.cronEntry = entryID
	case TriggerWatch:
		if err := s.startWatchLocked(profile); err != nil {
			return fmt.Errorf("scheduler: %s: %w", profile, err)
		}
	default:
		return fmt.Errorf("scheduler: %s: unsupported trigger kind %q", profile, st.trigger.Kind)
	}
	return nil
}

func (s *Scheduler) stopLocked(profile string) {
	st, ok := s.triggers[profile]
	if !ok {
		return
	}
	if st.cronEntry != 0 {
		s.cron.Remove(st.cronEntry)
		st.cronEntry = 0
	}
	if st.debounce != nil {
		st.debounce.Stop()
		st.debounce = nil
	}
	if st.watcher != nil {
		close(st.watchDone)
		_ = st.watcher.Close()
		st.watcher = nil
	}
}

func (s *Scheduler) startWatchLocked(profile string) error {
	st := s.triggers[profile]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, p := range st.trigger.WatchPaths {
		if err := addWatchRecursive(watcher, p); err != nil {
			watcher.Close()
			return err
		}
	}

	st.watcher = watcher
	st.watchDone = make(chan struct{})

	debounce := time.Duration(st.trigger.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	go func() {
		for {
			select {
			case <-st.watchDone:
				return
			case <-s.ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addWatchRecursive(watcher, event.Name)
					}
				}
				s.requestRun(profile, debounce)
			case <-watcher.Errors:
			}
		}
	}()
	return nil
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func (s *Scheduler) requestRun(profile string, debounce time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.triggers[profile]
	if !ok {
		return
	}
	if st.debounce != nil {
		st.debounce.Stop()
	}
	st.debounce = time.AfterFunc(debounce, func() {
		s.run(profile)
	})
}

// run executes profile if it isn't already running; a request that arrives
// mid-run is coalesced into a single pending re-run rather than queued
// unboundedly.
func (s *Scheduler) run(profile string) {
	s.mu.Lock()
	st, ok := s.triggers[profile]
	if !ok {
		s.mu.Unlock()
		return
	}
	if st.running {
		st.pending = true
		s.mu.Unlock()
		return
	}
	st.running = true
	s.mu.Unlock()

	err := s.executor(profile)
	if s.OnResult != nil {
		s.OnResult(profile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.running = false
	if st.pending {
		st.pending = false
		go s.run(profile)
	}
}
