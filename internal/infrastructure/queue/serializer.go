package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

const channelBuffer = 64

// ErrStopped is returned by Do once the serializer has been stopped.
var ErrStopped = errors.New("queue: serializer stopped")

// Job is a unit of work run by the serializer's worker.
type Job func(ctx context.Context) error

type request struct {
	ctx  context.Context
	job  Job
	name string
	done chan error
}

// Serializer runs jobs one at a time, in submission order, on a single
// worker goroutine. It turns a store's load → mutate → save sequences into a
// critical section for every caller inside this process.
type Serializer struct {
	jobs    chan request
	stop    chan struct{}
	exited  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// NewSerializer creates a Serializer. Call Start before submitting jobs.
func NewSerializer(log zerolog.Logger) *Serializer {
	return &Serializer{
		jobs:   make(chan request, channelBuffer),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
		log:    log.With().Str("component", "serializer").Logger(),
	}
}

// Start launches the worker. It exits when ctx is cancelled or Stop is
// called.
func (s *Serializer) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop terminates the worker and waits for it. Jobs still queued are
// answered with ErrStopped.
func (s *Serializer) Stop() {
	s.stopped.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Do queues job under name and blocks until it has run. If ctx ends while
// the job still waits in the queue, the worker skips it and Do returns the
// ctx error; once the job has started, Do always reports its outcome.
func (s *Serializer) Do(ctx context.Context, name string, job Job) error {
	req := request{ctx: ctx, job: job, name: name, done: make(chan error, 1)}

	select {
	case <-s.stop:
		return ErrStopped
	case <-s.exited:
		return ErrStopped
	default:
	}

	select {
	case <-s.stop:
		return ErrStopped
	case <-s.exited:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	case s.jobs <- req:
	}

	select {
	case err := <-req.done:
		return err
	case <-s.exited:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (s *Serializer) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.exited)
	defer s.drain()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case req := <-s.jobs:
			if err := req.ctx.Err(); err != nil {
				req.done <- err
				continue
			}
			err := req.job(req.ctx)
			if err != nil {
				s.log.Debug().Err(err).Str("job", req.name).Msg("job failed")
			}
			req.done <- err
		}
	}
}

// drain answers every queued request so no caller blocks forever.
func (s *Serializer) drain() {
	for {
		select {
		case req := <-s.jobs:
			req.done <- ErrStopped
		default:
			return
		}
	}
}
