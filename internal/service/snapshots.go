package service

import (
	"context"

	"motostats/internal/keys"
	"motostats/internal/models"
)

// SnapshotGetter is satisfied by *storage.S3Service.
type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, bucketName, key string) (*models.Snapshot, error)
}

// NewSnapshotIterator yields every snapshot announced on msgs, ignoring other
// objects such as stored reports.
func NewSnapshotIterator(msgs MessageIterator, store SnapshotGetter) *Iterator[*models.Snapshot] {
	return NewIterator(msgs, store.GetSnapshot, keys.IsSnapshot)
}
