// Package objectstore provides a NATS-based implementation of the
// ObjectStore interface. The phonemizer worker reads source text from one
// bucket and writes generated phoneme strings to another.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsObjectStore implements the core.ObjectStore interface using a NATS
// JetStream object store bucket.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

// New creates a NatsObjectStore bound to bucketName, creating the bucket if
// it does not exist yet.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := bindBucket(jetstreamContext, bucketName)
	if err != nil {
		return nil, err
	}

	return &NatsObjectStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// bindBucket uses a create-first approach: create the bucket, and bind to it
// instead when it already exists.
func bindBucket(
	jetstreamContext nats.JetStreamContext,
	bucketName string,
) (nats.ObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err == nil {
		return store, nil
	}

	if errors.Is(err, jetstream.ErrBucketExists) {
		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to bind to existing object store bucket '%s': %w",
				bucketName,
				err,
			)
		}

		return store, nil
	}

	return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
}

// Download retrieves an object from the bucket.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get object '%s' from bucket '%s': %w",
			key,
			n.bucket,
			err,
		)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the bucket.
func (n *NatsObjectStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := n.store.Put(&nats.ObjectMeta{Name: key}, reader)
	if err != nil {
		return fmt.Errorf(
			"failed to put object '%s' to bucket '%s': %w",
			key,
			n.bucket,
			err,
		)
	}

	return nil
}
