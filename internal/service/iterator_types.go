package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"apiprobe/internal/models"
)

// MessageIterator is a source of Kafka messages with manual commits.
// kafkaclient.KafkaConsumer implements it.
type MessageIterator interface {
	// Messages is closed by the implementation when consumption stops.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges msg as processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads the archived object an event points at. It must not
// modify the store.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded object with the run event that referenced it.
type FetchedObject[T any] struct {
	Data  T
	Event models.RunEvent
}
