package mqtt

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
)

// EventQueue is an emitter.Observer that hands events to a Publisher on its
// own goroutine. Observe never blocks; events are dropped when the queue is
// full.
type EventQueue struct {
	pub     Publisher
	log     *zap.Logger
	ch      chan emitter.Event
	dropped atomic.Uint64
}

// NewEventQueue creates a queue holding up to size events.
func NewEventQueue(pub Publisher, size int, log *zap.Logger) *EventQueue {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventQueue{
		pub: pub,
		log: log.Named("mqtt"),
		ch:  make(chan emitter.Event, size),
	}
}

// Observe enqueues ev.
func (q *EventQueue) Observe(ev emitter.Event) {
	select {
	case q.ch <- ev:
	default:
		if q.dropped.Add(1) == 1 {
			q.log.Warn("event queue full, dropping events")
		}
	}
}

// Dropped returns how many events were discarded.
func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Run publishes queued events until ctx is done, then publishes whatever is
// still queued.
func (q *EventQueue) Run(ctx context.Context) {
	for {
		select {
		case ev := <-q.ch:
			q.publish(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-q.ch:
					q.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func (q *EventQueue) publish(ev emitter.Event) {
	if err := q.pub.Publish(ev); err != nil {
		// Don't crash on publish failure
		q.log.Debug("publish event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
