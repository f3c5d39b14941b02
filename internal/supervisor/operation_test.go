package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/hardware"
)

// drain receives every event of op until its channel closes.
func drain[T any](t *testing.T, op *Operation[T]) []Event[T] {
	t.Helper()
	var events []Event[T]
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev, status := op.TryRecv()
		switch status {
		case RecvClosed:
			return events
		case RecvEvent:
			events = append(events, ev)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("operation did not finish")
	return nil
}

func TestOperationDeliversInOrder(t *testing.T) {
	op := Start(7, func(r *Reporter[string]) (string, error) {
		for p := 1; p <= 5; p++ {
			r.Progress(p * 20)
		}
		return "done", nil
	})

	events := drain(t, op)
	require.Len(t, events, 6)
	for i, ev := range events[:5] {
		assert.Equal(t, uint64(7), ev.Generation)
		assert.Equal(t, (i+1)*20, ev.Progress)
		assert.False(t, ev.Done)
	}
	last := events[5]
	assert.True(t, last.Done)
	assert.Equal(t, "done", last.Value)
	assert.NoError(t, last.Err)
	assert.Equal(t, uint64(7), op.Generation())
}

func TestOperationError(t *testing.T) {
	want := errors.New("boom")
	op := Start(1, func(*Reporter[int]) (int, error) { return 0, want })

	events := drain(t, op)
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, want)
}

func TestOperationRecoversPanic(t *testing.T) {
	op := Start(1, func(*Reporter[int]) (int, error) { panic("bad asset table") })

	events := drain(t, op)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
	assert.EqualError(t, events[0].Err, "worker panicked: bad asset table")
}

func TestTryRecvEmpty(t *testing.T) {
	gate := make(chan struct{})
	op := Start(1, func(*Reporter[int]) (int, error) {
		<-gate
		return 1, nil
	})

	_, status := op.TryRecv()
	assert.Equal(t, RecvEmpty, status)

	close(gate)
	events := drain(t, op)
	require.Len(t, events, 1)
}

func TestAbandonUnblocksWorker(t *testing.T) {
	finished := make(chan struct{})
	op := Start(1, func(r *Reporter[int]) (int, error) {
		defer close(finished)
		for i := 0; i < eventBuffer*4; i++ {
			r.Progress(i % 100)
		}
		return 0, nil
	})

	op.Abandon()
	op.Abandon()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned worker blocked on a full channel")
	}
}

func TestNextSkipsStaleGenerations(t *testing.T) {
	op := &Operation[int]{events: make(chan Event[int], 3), quit: make(chan struct{})}
	op.events <- Event[int]{Generation: 1, Progress: 90}
	op.events <- Event[int]{Generation: 2, Progress: 10}
	op.events <- Event[int]{Generation: 1, Done: true}
	close(op.events)

	ev, status := next(op, 2)
	assert.Equal(t, RecvEvent, status)
	assert.Equal(t, 10, ev.Progress)

	_, status = next(op, 2)
	assert.Equal(t, RecvClosed, status)
}

func TestWait(t *testing.T) {
	h := newHarness()
	h.fetcher.set("Org/Repo1", []firmware.RawRelease{rawRelease("v1", "fw-A.bin")}, nil)
	h.sup.SetHardware(hardware.IRock424)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := Wait(ctx, h.sup, time.Millisecond, Settled)
	require.NoError(t, err)
	assert.Equal(t, StageCatalogReady, snap.Stage)
}

func TestWaitContextDone(t *testing.T) {
	h := newHarness()
	h.fetcher.gate("Org/Repo1")
	h.sup.SetHardware(hardware.IRock424)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := Wait(ctx, h.sup, time.Millisecond, Settled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StageCatalogLoading, snap.Stage)
}
