package workers

import (
	"context"
	"log/slog"
	"time"

	"linkgraph/contract"
	"linkgraph/observability"
	"linkgraph/runtime"
)

// FanoutWorker drains the dispatcher's job queue and performs
// best-effort live delivery through the presence registry.
//
// It provides no guarantees regarding delivery, ordering, or retries:
// the durable stores already hold the record, so a failed or skipped
// push is logged and discarded, never surfaced to the caller.
//
// FanoutWorker is safe for concurrent use; several instances may drain
// the same queue.
type FanoutWorker struct {
	log             *slog.Logger
	presence        contract.Presence
	jobs            <-chan runtime.Job
	deliveryTimeout time.Duration
}

func NewFanoutWorker(log *slog.Logger, presence contract.Presence,
	jobs <-chan runtime.Job, deliveryTimeout time.Duration) *FanoutWorker {
	return &FanoutWorker{
		log:             log,
		presence:        presence,
		jobs:            jobs,
		deliveryTimeout: deliveryTimeout,
	}
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case job := <-w.jobs:
			switch job.Kind {
			case runtime.JobPush:
				w.push(ctx, job)
			case runtime.JobBroadcast:
				w.broadcast(ctx, job)
			}
		}
	}
}

// push delivers to the receiver's live session, if any. An offline
// receiver is the normal case: the durable record satisfies future
// polling.
func (w *FanoutWorker) push(ctx context.Context, job runtime.Job) {
	sink, ok := w.presence.Live(job.Event.Receiver().Key())
	if !ok {
		return
	}
	w.deliver(ctx, sink, job)
}

// broadcast delivers to every session joined to the conversation room,
// independent of whether the owning actors are the message participants.
func (w *FanoutWorker) broadcast(ctx context.Context, job runtime.Job) {
	for _, sink := range w.presence.SinksForRoom(job.ConversationID) {
		w.deliver(ctx, sink, job)
	}
}

func (w *FanoutWorker) deliver(ctx context.Context, sink contract.EventSink, job runtime.Job) {
	deliveryCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
	defer cancel()

	if err := sink.Consume(deliveryCtx, job.Event); err != nil {
		observability.PushesDropped.Inc()
		w.log.Warn("Live push failed, durable record remains the contract",
			"kind", job.Event.Kind(),
			"receiver", job.Event.Receiver().Key(),
			"error", err)
		return
	}
	observability.PushesDelivered.Inc()
}
