// Package objectstore abstracts durable blob storage for pipeline artifacts.
package objectstore

import (
	"context"
	"fmt"
)

// Store is durable object storage keyed by bucket and key.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// NotFoundError reports a missing object.
type NotFoundError struct {
	Bucket string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s/%s", e.Bucket, e.Key)
}
