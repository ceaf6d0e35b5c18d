// Package assets loads external resources off the game thread and hands the
// results back on it. Fetching and delivery are separate steps: Fetch may run
// on any goroutine, Dispatch runs listeners and belongs to the game loop.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Status int32

const (
	NotStarted Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrAssetType    = errors.New("asset has a different resource type")
)

// Loader produces a resource. It must honour ctx cancellation.
type Loader[T any] func(ctx context.Context) (T, error)

// Handle is the type-erased view the Manager keeps.
type Handle interface {
	Name() string
	Status() Status
	Err() error
	Fetch(ctx context.Context) error
	Dispatch() bool
	Cancel()
}

var _ Handle = (*Asset[string])(nil)

// Asset is a future over one resource. Listeners attached after delivery
// fire immediately; listeners attached before it fire from Dispatch.
type Asset[T any] struct {
	name string
	load Loader[T]

	mu        sync.Mutex
	status    Status
	res       T
	err       error
	delivered bool
	cancelled bool
	onDone    []func(T)
	onErr     []func(error)
}

func New[T any](name string, load Loader[T]) *Asset[T] {
	return &Asset[T]{name: name, load: load}
}

func (a *Asset[T]) Name() string { return a.name }

func (a *Asset[T]) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Resource returns the loaded value. ok is false until the asset is Loaded.
func (a *Asset[T]) Resource() (res T, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != Loaded {
		return res, false
	}
	return a.res, true
}

// Progress is 0 until the fetch finishes and 1 afterwards. Loaders read whole
// files, so there is nothing finer to report.
func (a *Asset[T]) Progress() float64 {
	switch a.Status() {
	case Loaded, Failed:
		return 1
	}
	return 0
}

func (a *Asset[T]) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Asset[T]) OnComplete(fn func(T)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	if a.delivered && a.status == Loaded {
		res, cancelled := a.res, a.cancelled
		a.mu.Unlock()
		if !cancelled {
			fn(res)
		}
		return
	}
	a.onDone = append(a.onDone, fn)
	a.mu.Unlock()
}

func (a *Asset[T]) OnError(fn func(error)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	if a.delivered && a.status == Failed {
		err, cancelled := a.err, a.cancelled
		a.mu.Unlock()
		if !cancelled {
			fn(err)
		}
		return
	}
	a.onErr = append(a.onErr, fn)
	a.mu.Unlock()
}

// Fetch runs the loader if the asset has not been started. Calls after the
// first return the stored error without loading again.
func (a *Asset[T]) Fetch(ctx context.Context) error {
	a.mu.Lock()
	if a.status != NotStarted {
		err := a.err
		a.mu.Unlock()
		return err
	}
	a.status = Loading
	a.mu.Unlock()

	res, err := a.load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = Failed
		a.err = fmt.Errorf("load asset %s: %w", a.name, err)
		return a.err
	}
	a.status = Loaded
	a.res = res
	return nil
}

// Dispatch delivers a finished result to the attached listeners exactly once.
// It reports whether this call did the delivery.
func (a *Asset[T]) Dispatch() bool {
	a.mu.Lock()
	if a.delivered || (a.status != Loaded && a.status != Failed) {
		a.mu.Unlock()
		return false
	}
	a.delivered = true
	status, res, err := a.status, a.res, a.err
	done, failed := a.onDone, a.onErr
	a.onDone, a.onErr = nil, nil
	cancelled := a.cancelled
	a.mu.Unlock()

	if cancelled {
		return true
	}
	if status == Loaded {
		for _, fn := range done {
			fn(res)
		}
	} else {
		for _, fn := range failed {
			fn(err)
		}
	}
	return true
}

// Load fetches and delivers on the calling goroutine.
func (a *Asset[T]) Load(ctx context.Context) error {
	err := a.Fetch(ctx)
	a.Dispatch()
	return err
}

// Cancel stops completion forwarding. An in-flight fetch still finishes.
func (a *Asset[T]) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled = true
	a.onDone, a.onErr = nil, nil
}
