package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerRunNow(t *testing.T) {
	calls := make(chan string, 1)
	s := New(func(profile string) error {
		calls <- profile
		return nil
	})

	require.NoError(t, s.Add(Trigger{Profile: "daily", Kind: TriggerCron, CronExpr: "@every 1h"}))
	s.RunNow("daily")

	select {
	case p := <-calls:
		require.Equal(t, "daily", p)
	case <-time.After(2 * time.Second):
		t.Fatal("expected executor to be called")
	}
}

func TestSchedulerWatchTriggersExecutor(t *testing.T) {
	tempDir := t.TempDir()
	calls := make(chan struct{}, 10)
	s := New(func(profile string) error {
		calls <- struct{}{}
		return nil
	})
	s.Start()
	t.Cleanup(s.Stop)

	require.NoError(t, s.Add(Trigger{
		Profile:    "watch1",
		Kind:       TriggerWatch,
		WatchPaths: []string{tempDir},
		DebounceMs: 50,
	}))

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.txt"), []byte("x"), 0644))

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("expected watcher to trigger executor")
	}
}

func TestSchedulerCronTriggersExecutor(t *testing.T) {
	calls := make(chan struct{}, 10)
	s := New(func(profile string) error {
		calls <- struct{}{}
		return nil
	})
	s.Start()
	t.Cleanup(s.Stop)

	require.NoError(t, s.Add(Trigger{Profile: "sched1", Kind: TriggerCron, CronExpr: "@every 1s"}))

	select {
	case <-calls:
	case <-time.After(4 * time.Second):
		t.Fatal("expected scheduled trigger to run executor")
	}
}

func TestSchedulerCoalescesConcurrentRuns(t *testing.T) {
	release := make(chan struct{})
	var starts int
	startCh := make(chan struct{}, 10)
	s := New(func(profile string) error {
		starts++
		startCh <- struct{}{}
		<-release
		return nil
	})

	require.NoError(t, s.Add(Trigger{Profile: "p", Kind: TriggerCron, CronExpr: "@every 1h"}))

	go s.RunNow("p")
	<-startCh

	s.RunNow("p")
	s.RunNow("p")

	close(release)
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 1, len(startCh), "two RunNow calls during a run must coalesce into exactly one re-run")
}
