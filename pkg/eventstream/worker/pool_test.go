package worker

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/eventstream"
)

// captureSink records events and can simulate failures.
type captureSink struct {
	mu     sync.Mutex
	events []*eventstream.FactEvent
	fail   bool
	closed bool
}

func (s *captureSink) Publish(_ context.Context, event *eventstream.FactEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("sink unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var _ = Describe("Pool", func() {
	var (
		sink *captureSink
		ctx  context.Context
	)

	BeforeEach(func() {
		sink = &captureSink{}
		ctx = context.Background()
	})

	It("delivers every published event before Close returns", func() {
		pool := NewPool(sink, Opts{Workers: 2, QueueSize: 16}, zap.NewNop())

		for i := 0; i < 10; i++ {
			event := eventstream.NewFactEvent(eventstream.EventFactCreated, 1, []string{fmt.Sprintf("f%d", i)})
			Expect(pool.Publish(ctx, event)).To(Succeed())
		}

		Expect(pool.Close()).To(Succeed())
		Expect(sink.count()).To(Equal(10))
		Expect(sink.closed).To(BeTrue())
	})

	It("never surfaces sink failures to the publisher", func() {
		sink.fail = true
		pool := NewPool(sink, Opts{Workers: 1, QueueSize: 4}, zap.NewNop())

		event := eventstream.NewFactEvent(eventstream.EventFactDeleted, 1, []string{"f1"})
		Expect(pool.Publish(ctx, event)).To(Succeed())
		Expect(pool.Close()).To(Succeed())
		Expect(sink.count()).To(Equal(0))
	})

	It("drops events instead of blocking when the queue is full", func() {
		// no workers draining yet is not possible with NewPool, so saturate
		// a tiny queue with a stalled sink instead
		blocked := make(chan struct{})
		stall := &stallSink{release: blocked}
		pool := NewPool(stall, Opts{Workers: 1, QueueSize: 1}, zap.NewNop())

		for i := 0; i < 20; i++ {
			event := eventstream.NewFactEvent(eventstream.EventFactCreated, 1, []string{fmt.Sprintf("f%d", i)})
			Expect(pool.Publish(ctx, event)).To(Succeed())
		}

		close(blocked)
		Expect(pool.Close()).To(Succeed())
		Expect(stall.count()).To(BeNumerically("<", 20))
	})
})

// stallSink blocks the first delivery until released.
type stallSink struct {
	mu      sync.Mutex
	n       int
	release chan struct{}
	once    sync.Once
}

func (s *stallSink) Publish(_ context.Context, _ *eventstream.FactEvent) error {
	s.once.Do(func() { <-s.release })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return nil
}

func (s *stallSink) Close() error { return nil }

func (s *stallSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
