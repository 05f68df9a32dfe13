// Package nop implements a publisher that discards every event, for
// deployments without a configured stream.
package nop

import (
	"context"

	"github.com/packratco/packrat/pkg/eventstream"
)

type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, event *eventstream.FactEvent) error {
	return nil
}

func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
