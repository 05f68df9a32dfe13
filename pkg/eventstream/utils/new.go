// Package eventstreamutils is the event stream utility package
package eventstreamutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/eventstream"
	"github.com/packratco/packrat/pkg/eventstream/kafka"
	"github.com/packratco/packrat/pkg/eventstream/nop"
	"github.com/packratco/packrat/pkg/eventstream/worker"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Workers      int
	QueueSize    int
	Logger       *zap.Logger
}

// NewPublisher builds the configured publisher wrapped in the async worker
// pool. The "nop" provider skips the pool; there is nothing to decouple.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		sink, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
		if err != nil {
			return nil, err
		}
		return worker.NewPool(sink, worker.Opts{
			Workers:   o.Workers,
			QueueSize: o.QueueSize,
		}, o.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", o.ProviderType)
	}
}
