// Package workflow implements the enhancement workflow controller: file
// acceptance, one outstanding request to the restoration service, and the
// result or error that follows.
//
// All mutation goes through the controller's methods. Each request captures the
// generation it was issued under; a resolution is applied only if the
// controller has not been reset or re-armed since.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"face-restore-studio/internal/api"
	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/preview"
)

const defaultTimeout = 5 * time.Minute

var (
	// ErrBusy is returned when a file is selected while a request is in flight.
	ErrBusy = errors.New("an enhancement request is already in progress")
	// ErrNoFile is returned by Retry when nothing is selected.
	ErrNoFile = errors.New("no file selected")
	// ErrNoResult is returned by download helpers outside the Result phase.
	ErrNoResult = errors.New("no enhancement result available")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller closed")
)

// Enhancer performs the network call. *api.Client satisfies it.
type Enhancer interface {
	Enhance(ctx context.Context, upload api.Upload) (*api.EnhancementResult, error)
}

// Dispatcher runs state notifications, e.g. on the UI goroutine.
type Dispatcher func(func())

// Option customizes the controller.
type Option func(*Controller)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDispatcher routes subscriber notifications through d.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type flight struct {
	generation uint64
	cancel     context.CancelFunc
	// done closes when the flight is resolved, wire when the enhancer call
	// has returned. An enhancer that ignores ctx keeps wire open past done.
	done chan struct{}
	wire chan struct{}
}

type outcome struct {
	result *api.EnhancementResult
	err    error
}

// Controller owns the workflow state for one session.
type Controller struct {
	enhancer Enhancer
	previews preview.Opener
	logger   logrus.FieldLogger
	dispatch Dispatcher
	timeout  time.Duration
	newName  func(now time.Time, ext string) string

	mu          sync.Mutex
	state       State
	generation  uint64
	inflight    *flight
	draining    *flight
	version     uint64
	closed      bool
	subscribers map[int]func(State)
	nextSub     int

	// notifyMu serializes delivery so subscribers never see an older state
	// after a newer one. Lock order: notifyMu before mu.
	notifyMu  sync.Mutex
	delivered uint64

	flights sync.WaitGroup
}

// NewController creates a controller in the Idle phase.
func NewController(enhancer Enhancer, previews preview.Opener, opts ...Option) *Controller {
	c := &Controller{
		enhancer:    enhancer,
		previews:    previews,
		logger:      logrus.StandardLogger(),
		dispatch:    func(fn func()) { fn() },
		timeout:     defaultTimeout,
		newName:     downloadName,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Subscribe registers fn for state changes. The returned function removes it.
// Notifications may be coalesced; fn always receives the newest state last.
// fn must not call back into the controller synchronously.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// SelectFile accepts a file that already passed intake policy, replaces any
// previous preview and submits the file. Selecting while a request is in
// flight is rejected with ErrBusy and leaves the state untouched.
func (c *Controller) SelectFile(file intake.File) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Phase == Processing {
		c.mu.Unlock()
		c.logger.WithField("file", file.Name).Warn("File selected while processing; ignoring")
		return ErrBusy
	}

	c.releasePreviewLocked()
	c.state = State{Phase: Idle}
	c.generation++

	handle, err := c.previews.Open(file)
	if err != nil {
		c.state = State{
			Phase:        Error,
			ErrorMessage: api.Normalize("could not read image: " + err.Error()),
		}
		snap, version := c.commitLocked()
		c.mu.Unlock()

		c.logger.WithError(err).WithField("file", file.Name).Error("Failed to open preview")
		c.notify(snap, version)
		return fmt.Errorf("open preview: %w", err)
	}

	c.state.File = &file
	c.state.Preview = handle
	c.submitLocked()
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
	return nil
}

// Retry re-submits the selected file. It is never called automatically.
func (c *Controller) Retry() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Phase == Processing {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state.File == nil {
		c.mu.Unlock()
		return ErrNoFile
	}

	c.generation++
	c.state.Result = nil
	c.state.ErrorMessage = ""
	c.submitLocked()
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
	return nil
}

// Reset releases the preview, discards any outstanding request and returns
// to Idle. It is idempotent.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.resetLocked() {
		snap, version := c.commitLocked()
		c.mu.Unlock()
		c.notify(snap, version)
		return
	}
	c.mu.Unlock()
}

// DismissError hides the error message. From the Error phase the controller
// returns to Idle and keeps the selected file so it can be retried.
func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.state.Phase != Error {
		c.mu.Unlock()
		return
	}
	c.state.ErrorMessage = ""
	c.state.Phase = Idle
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
}

// Await blocks until no request is outstanding and returns the state.
func (c *Controller) Await(ctx context.Context) (State, error) {
	c.mu.Lock()
	f := c.inflight
	c.mu.Unlock()

	if f != nil {
		select {
		case <-f.done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

// Close tears the session down. The preview is released and every later
// operation fails with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	changed := c.resetLocked()
	c.closed = true
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.logger.Debug("Workflow controller closed")
	if changed {
		c.notify(snap, version)
	}
}

func (c *Controller) resetLocked() bool {
	if c.closed {
		return false
	}
	if c.state.Phase == Idle && c.state.File == nil && c.inflight == nil {
		return false
	}

	c.generation++
	if c.inflight != nil {
		c.inflight.cancel()
		c.draining = c.inflight
		c.inflight = nil
		c.logger.WithField("generation", c.draining.generation).Info("Outstanding request will be discarded")
	}
	c.releasePreviewLocked()
	c.state = State{Phase: Idle}
	return true
}

func (c *Controller) releasePreviewLocked() {
	if c.state.Preview != nil {
		c.state.Preview.Release()
		c.state.Preview = nil
	}
}

// submitLocked issues the single request for the selected file. The caller
// holds c.mu and has already bumped the generation.
func (c *Controller) submitLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	f := &flight{
		generation: c.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
		wire:       make(chan struct{}),
	}
	prev := c.draining
	c.draining = nil
	c.inflight = f
	c.state.Phase = Processing

	file := *c.state.File
	upload := api.Upload{Name: file.Name, MIMEType: file.MIMEType, Data: file.Data}

	fields := logrus.Fields{
		"file":       file.Name,
		"bytes":      file.Size(),
		"generation": f.generation,
	}
	if c.state.Preview != nil {
		fields["preview"] = c.state.Preview.ID()
	}
	c.logger.WithFields(fields).Info("Submitting enhancement request")

	c.flights.Add(1)
	go c.run(ctx, f, prev, upload)
}

func (c *Controller) run(ctx context.Context, f *flight, prev *flight, upload api.Upload) {
	defer c.flights.Done()
	defer close(f.done)
	defer f.cancel()

	// A request discarded by Reset may still be on the wire; wait for it so
	// only one call reaches the service at a time, but never past our own
	// deadline.
	if prev != nil {
		select {
		case <-prev.wire:
		case <-ctx.Done():
			close(f.wire)
			c.logger.WithField("generation", f.generation).Warn("Previous request still outstanding at deadline")
			c.handOff(f, prev)
			c.resolve(f, nil, c.deadlineError(ctx, ctx.Err()))
			return
		}
	}

	replies := make(chan outcome, 1)
	go func() {
		defer close(f.wire)
		result, err := c.enhancer.Enhance(ctx, upload)
		replies <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-replies:
	case <-ctx.Done():
		select {
		case out = <-replies:
		default:
			out.err = ctx.Err()
			c.handOff(f, f)
		}
	}
	if out.err != nil {
		out.err = c.deadlineError(ctx, out.err)
	}
	c.resolve(f, out.result, out.err)
}

// handOff records a call that outlived flight f so the next submission waits
// for it. After Reset the call is already recorded as draining.
func (c *Controller) handOff(f, pending *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == f {
		c.draining = pending
	}
}

// deadlineError reports err as a timeout carrying the configured bound when
// ctx expired. Other errors pass through.
func (c *Controller) deadlineError(ctx context.Context, err error) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	var transport *api.TransportError
	switch {
	case !errors.As(err, &transport):
		return &api.TransportError{Op: "post", Timeout: c.timeout, Err: context.DeadlineExceeded}
	case transport.Timeout == 0:
		return &api.TransportError{Op: transport.Op, Timeout: c.timeout, Err: transport.Err}
	}
	return err
}

func (c *Controller) resolve(f *flight, result *api.EnhancementResult, err error) {
	c.mu.Lock()
	if c.inflight != f || c.generation != f.generation {
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{
			"generation": f.generation,
			"error":      err,
		}).Info("Discarding stale enhancement response")
		return
	}
	c.inflight = nil

	switch {
	case err != nil:
		c.state.Phase = Error
		c.state.ErrorMessage = api.Message(err)
	case result == nil:
		c.state.Phase = Error
		c.state.ErrorMessage = api.GenericMessage
	case !result.Success:
		c.state.Phase = Error
		c.state.ErrorMessage = api.Message(&api.LogicalError{Message: result.Message})
	default:
		c.state.Phase = Result
		c.state.Result = result
	}
	snap, version := c.commitLocked()
	c.mu.Unlock()

	log := c.logger.WithFields(logrus.Fields{
		"generation": f.generation,
		"phase":      snap.Phase,
	})
	if snap.Phase == Error {
		log.WithField("message", snap.ErrorMessage).Warn("Enhancement failed")
	} else {
		log.Info("Enhancement result ready")
	}
	c.notify(snap, version)
}

func (c *Controller) commitLocked() (State, uint64) {
	c.version++
	return c.state, c.version
}

func (c *Controller) notify(snap State, version uint64) {
	c.dispatch(func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()

		if version <= c.delivered {
			return
		}
		c.delivered = version

		c.mu.Lock()
		subs := make([]func(State), 0, len(c.subscribers))
		for id := 0; id < c.nextSub; id++ {
			if fn, ok := c.subscribers[id]; ok {
				subs = append(subs, fn)
			}
		}
		c.mu.Unlock()

		for _, fn := range subs {
			fn(snap)
		}
	})
}
