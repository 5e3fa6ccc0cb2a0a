// Package storage abstracts the object store holding uploaded file bytes.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when no object exists under the given key.
var ErrObjectNotFound = errors.New("object not found")

// Object is stored bytes plus the content type they were uploaded with.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore stores and retrieves file bytes by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
