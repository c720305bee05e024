// Package service turns the run event feed into loaded run reports.
package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"apiprobe/internal/models"
)

// Iterator reads RunEvents from a MessageIterator and loads the report each
// one references. It does not own the message source; callers start and stop
// the consumer themselves.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
}

func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
	}
}

// Objects streams loaded objects until the message channel is closed or ctx
// is done. Messages that cannot be decoded and events without an archived
// report are skipped and committed. A failed load is skipped without a commit
// so the event is seen again after a restart.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		messages := it.msgIterator.Messages()
		for {
			var msg kafka.Message
			select {
			case <-ctx.Done():
				return
			case m, ok := <-messages:
				if !ok {
					return
				}
				msg = m
			}

			var event models.RunEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping undecodable run event")
				it.commit(ctx, msg)
				continue
			}
			if !event.Archived() {
				log.Debug().Str("run_id", event.RunID).Msg("run event has no archived report")
				it.commit(ctx, msg)
				continue
			}

			data, err := it.loader(ctx, event.Bucket, event.Key)
			if err != nil {
				log.Error().Err(err).Str("run_id", event.RunID).Str("key", event.Key).Msg("error loading report")
				continue
			}

			select {
			case out <- &FetchedObject[T]{Data: data, Event: event}:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		log.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit offset")
	}
}
