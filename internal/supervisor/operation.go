package supervisor

import (
	"fmt"
	"sync"
)

// eventBuffer bounds how far a worker can run ahead of the poll loop
// before its progress sends block.
const eventBuffer = 64

// Event is one message from a background operation. Progress events carry
// only Progress; the final event has Done set and carries Value or Err.
type Event[T any] struct {
	Generation uint64
	Progress   int
	Done       bool
	Value      T
	Err        error
}

// RecvStatus is the result of a non-blocking receive.
type RecvStatus int

const (
	RecvEmpty RecvStatus = iota
	RecvEvent
	RecvClosed
)

// Operation is one background task whose events are consumed by polling.
// Workers only ever see the send side through a Reporter.
type Operation[T any] struct {
	generation uint64
	events     chan Event[T]
	quit       chan struct{}
	abandon    sync.Once
}

// Reporter is the worker's handle for sending progress.
type Reporter[T any] struct {
	generation uint64
	events     chan<- Event[T]
	quit       <-chan struct{}
}

// Start runs fn on a new goroutine tagged with generation. The event
// channel is closed after fn returns and its terminal event is sent.
func Start[T any](generation uint64, fn func(r *Reporter[T]) (T, error)) *Operation[T] {
	op := &Operation[T]{
		generation: generation,
		events:     make(chan Event[T], eventBuffer),
		quit:       make(chan struct{}),
	}
	r := &Reporter[T]{generation: generation, events: op.events, quit: op.quit}

	go func() {
		defer close(op.events)
		value, err := run(fn, r)
		r.send(Event[T]{Generation: generation, Done: true, Value: value, Err: err})
	}()
	return op
}

// run calls fn, converting a panic into an error.
func run[T any](fn func(r *Reporter[T]) (T, error), r *Reporter[T]) (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panicked: %v", p)
		}
	}()
	return fn(r)
}

// Generation returns the generation the operation was started under.
func (op *Operation[T]) Generation() uint64 {
	return op.generation
}

// TryRecv returns the next event without blocking.
func (op *Operation[T]) TryRecv() (Event[T], RecvStatus) {
	select {
	case ev, ok := <-op.events:
		if !ok {
			return Event[T]{}, RecvClosed
		}
		return ev, RecvEvent
	default:
		return Event[T]{}, RecvEmpty
	}
}

// Abandon detaches the operation. The worker keeps running, but its
// remaining sends are dropped so it never blocks on a full channel.
func (op *Operation[T]) Abandon() {
	op.abandon.Do(func() { close(op.quit) })
}

// Progress reports a progress percentage. It matches firmware.ProgressFunc.
func (r *Reporter[T]) Progress(percent int) {
	r.send(Event[T]{Generation: r.generation, Progress: percent})
}

func (r *Reporter[T]) send(ev Event[T]) {
	select {
	case r.events <- ev:
	case <-r.quit:
	}
}
