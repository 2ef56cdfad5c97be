package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunDrainsQueueAcrossThreads(t *testing.T) {
	q := NewQueue([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	var processed int64

	Run(4, func(thread int) bool {
		_, ok := q.Pop()
		if !ok {
			return false
		}
		atomic.AddInt64(&processed, 1)
		return true
	})

	assert.Equal(t, int64(10), processed)
	assert.Equal(t, 0, q.Len())
}

func TestRunToleratesPerUnitErrors(t *testing.T) {
	q := NewQueue([]int{1, 2, 3})
	var failures, successes int64

	Run(2, func(thread int) bool {
		item, ok := q.Pop()
		if !ok {
			return false
		}
		if item == 2 {
			atomic.AddInt64(&failures, 1)
		} else {
			atomic.AddInt64(&successes, 1)
		}
		return true
	})

	assert.Equal(t, int64(1), failures)
	assert.Equal(t, int64(2), successes)
}
