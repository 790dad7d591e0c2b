package domain

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecNodeCanExecute(t *testing.T) {
	n := newExecNode("n", ExecuteMultiple, func() error { return nil })
	assert.True(t, n.CanExecute(), "a node with no required resources can always execute")

	r := newResource("x", reflect.TypeFor[int](), Resetable)
	n.addRequired(r)
	assert.False(t, n.CanExecute())

	r.storeValue(1)
	r.signalAvailable(time.Now())
	assert.True(t, n.CanExecute())
}

func TestExecNodeMarkScheduledOnce(t *testing.T) {
	n := newExecNode("n", ExecuteMultiple, func() error { return nil })
	assert.True(t, n.MarkScheduled())
	assert.False(t, n.MarkScheduled(), "a node already scheduled cannot be claimed again")

	n.ResetSchedule()
	assert.True(t, n.MarkScheduled(), "ResetSchedule allows a fresh claim")
}

func TestExecNodeExecuteOnceNeverReschedules(t *testing.T) {
	n := newExecNode("n", ExecuteOnce, func() error { return nil })
	require.True(t, n.MarkScheduled())
	require.NoError(t, n.Invoke())

	n.ResetSchedule()
	assert.False(t, n.MarkScheduled(), "an executed ExecuteOnce node stays unclaimable across resets")
}

func TestExecNodeInvokeReportsMissingProducer(t *testing.T) {
	n := newExecNode("n", ExecuteMultiple, func() error { return nil })
	out := newResource("out", reflect.TypeFor[int](), Resetable)
	n.addProduced(out)

	err := n.Invoke()
	var missing *MissingProducerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "out", missing.Resource)
	assert.Equal(t, err, n.LastError())
}

func TestExecNodeInvokeAtMostOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int64
	n := newExecNode("n", ExecuteMultiple, func() error {
		calls.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = n.Invoke()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "Invoke's TryLock guard admits exactly one caller")
}
