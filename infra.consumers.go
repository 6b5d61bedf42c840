package main

import (
	"context"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer drains the mutation queues and archives each event
// into the bolt backed audit store.
type boltDBConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	archive EventArchive
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, archive EventArchive) Consumer {
	return &boltDBConsumer{logger, q, archive}
}

func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	var event Event
	var err error
	var qid string
	for {
		qid, event, err = bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue, DeleteQueue:
			if err = bc.archive.Record(ctx, event); err != nil {
				bc.logger.Error("consumer: failed to archive event",
					zap.String("event.kind", event.Kind),
					zap.String("event.entity", event.EntityID),
					zap.Error(err),
				)
			}
		default:
			bc.logger.Warn("consumer: received event on unknown queue id", zap.String("qid", qid), zap.Any("event", event))
		}
	}
}
