package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is the consuming side of a Kafka topic.
type MessageIterator interface {
	// Messages returns a channel that is closed when the consumer stops.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object stored under bucket/key. It must
// honour ctx and must not modify the store.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded object with the event that announced it.
type FetchedObject[T any] struct {
	Data   T
	Bucket string
	Key    string
	Event  notification.Event
}
