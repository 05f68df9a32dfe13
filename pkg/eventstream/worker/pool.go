// Package worker decouples event publishing from request handling with a
// bounded queue drained by a pool of workers.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/eventstream"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256

	// publishTimeout bounds one downstream publish so a stalled broker can't
	// pin a worker forever.
	publishTimeout = 10 * time.Second
)

// Pool is an asynchronous publisher. Publish enqueues and returns
// immediately; workers drain the queue into the wrapped publisher. A full
// queue drops the event rather than stalling a request.
type Pool struct {
	sink   eventstream.Publisher
	queue  chan *eventstream.FactEvent
	logger *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Opts configures the pool. Zero values fall back to defaults.
type Opts struct {
	Workers   int
	QueueSize int
}

func NewPool(sink eventstream.Publisher, opts Opts, logger *zap.Logger) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &Pool{
		sink:   sink,
		queue:  make(chan *eventstream.FactEvent, queueSize),
		logger: logger,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}

	return p
}

func (p *Pool) work() {
	defer p.wg.Done()

	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Warn("event publish failed",
				zap.String("event_type", event.EventType),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Publish enqueues the event. The caller's context is not consulted; the
// hand-off is instantaneous or the event is dropped.
func (p *Pool) Publish(ctx context.Context, event *eventstream.FactEvent) error {
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("event queue full, dropping event",
			zap.String("event_type", event.EventType),
			zap.String("event_id", event.EventID),
		)
	}
	return nil
}

// Close stops accepting events, drains the queue, and closes the wrapped
// publisher.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
	return p.sink.Close()
}

var _ eventstream.Publisher = (*Pool)(nil)
