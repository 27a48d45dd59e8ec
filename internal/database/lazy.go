package database

import (
	"context"
	"errors"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("connection closed")

// Lazy is a process-wide connection established on first use. Concurrent
// callers that arrive while a connect is in flight wait for it instead of
// dialing again. A failed connect is not cached.
type Lazy[T any] struct {
	sem     chan struct{}
	value   T
	ready   bool
	closed  bool
	connect func(ctx context.Context) (T, error)
	close   func(T) error
}

func NewLazy[T any](connect func(ctx context.Context) (T, error), closeFn func(T) error) *Lazy[T] {
	return &Lazy[T]{
		sem:     make(chan struct{}, 1),
		connect: connect,
		close:   closeFn,
	}
}

// Get returns the shared connection, connecting if needed. It gives up
// waiting when ctx is done.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	var zero T

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-l.sem }()

	if l.closed {
		return zero, ErrClosed
	}
	if l.ready {
		return l.value, nil
	}

	v, err := l.connect(ctx)
	if err != nil {
		return zero, err
	}
	l.value = v
	l.ready = true
	return v, nil
}

// Close releases the connection if one was established. Later calls to Get
// fail with ErrClosed.
func (l *Lazy[T]) Close() error {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	if l.closed {
		return nil
	}
	l.closed = true
	if !l.ready || l.close == nil {
		return nil
	}
	return l.close(l.value)
}
