package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// ObjectStore is a Storage over a NATS JetStream ObjectStore bucket, for
// deployments where dataset files live in a shared blob store rather than
// on the local disk. Paths map directly to object names.
type ObjectStore struct {
	bucket jetstream.ObjectStore
}

var _ Storage = (*ObjectStore)(nil)

// NewObjectStore binds to the named bucket, creating it when absent.
func NewObjectStore(ctx context.Context, js jetstream.JetStream, bucket string) (*ObjectStore, error) {
	b, err := js.ObjectStore(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		b, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("bind object store bucket %q: %w", bucket, err)
	}
	return &ObjectStore{bucket: b}, nil
}

// NewObjectStoreBucket wraps an already-bound bucket.
func NewObjectStoreBucket(bucket jetstream.ObjectStore) *ObjectStore {
	return &ObjectStore{bucket: bucket}
}

// LoadText implements Storage.
func (o *ObjectStore) LoadText(ctx context.Context, path string) ([]byte, error) {
	data, err := o.bucket.GetBytes(ctx, path)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("get object %s: %w", path, err)
	}
	return data, nil
}

// SaveText implements Storage.
func (o *ObjectStore) SaveText(ctx context.Context, path string, data []byte) error {
	if _, err := o.bucket.PutBytes(ctx, path, data); err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

// Exists implements Storage.
func (o *ObjectStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := o.bucket.GetInfo(ctx, path)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %s: %w", path, err)
	}
	return true, nil
}
