// Package service turns object-store notifications into loaded objects.
// Iterator consumes storage events from a message source (Kafka via
// pkg/kafkaclient) and loads the referenced objects with a pluggable
// LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"log"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// Iterator consumes messages from a MessageIterator, interprets each message
// as a MinIO notification, loads every accepted object via LoaderFunc and
// yields FetchedObject items on a channel.
//
// The Iterator does not manage the lifecycle of the underlying message source.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	accept      func(key string) bool
}

// NewIterator constructs an Iterator. accept filters object keys; nil accepts
// every key.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], accept func(key string) bool) *Iterator[T] {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		accept:      accept,
	}
}

// Objects streams loaded objects until the message channel is closed or ctx
// is done. A message is committed once every accepted record in it has been
// handed to the consumer. Undecodable messages and rejected keys are
// committed and skipped; load failures are logged and left uncommitted.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for {
			var msg kafka.Message
			var ok bool
			select {
			case <-ctx.Done():
				return
			case msg, ok = <-it.msgIterator.Messages():
				if !ok {
					return
				}
			}

			if !it.handle(ctx, msg, out) {
				continue
			}
			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				log.Printf("Failed to commit offset: %v", err)
			}
		}
	}()
	return out
}

// handle reports whether msg can be committed.
func (it *Iterator[T]) handle(ctx context.Context, msg kafka.Message, out chan<- *FetchedObject[T]) bool {
	var info notification.Info
	if err := json.Unmarshal(msg.Value, &info); err != nil {
		log.Printf("Error unmarshalling JSON at offset %d: %v", msg.Offset, err)
		return true
	}

	for _, event := range info.Records {
		key, err := url.QueryUnescape(event.S3.Object.Key)
		if err != nil {
			log.Printf("Error decoding object key %q: %v", event.S3.Object.Key, err)
			continue
		}
		if !it.accept(key) {
			continue
		}

		bucket := event.S3.Bucket.Name
		data, err := it.loader(ctx, bucket, key)
		if err != nil {
			log.Printf("Error loading object %s/%s: %v", bucket, key, err)
			return false
		}

		select {
		case out <- &FetchedObject[T]{Data: data, Bucket: bucket, Key: key, Event: event}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
