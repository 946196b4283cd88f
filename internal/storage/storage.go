package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Backend is a namespaced key-value blob store. Each session gets its own namespace.
type Backend interface {
	Load(ctx context.Context, namespace, key string) ([]byte, error)
	Save(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// Store is a Backend bound to one namespace.
type Store struct {
	backend   Backend
	namespace string
}

func Scope(b Backend, namespace string) Store {
	return Store{backend: b, namespace: namespace}
}

func (s Store) Namespace() string { return s.namespace }

// Get returns ErrNotFound when the key has never been set.
func (s Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Load(ctx, s.namespace, key)
}

func (s Store) Set(ctx context.Context, key string, value []byte) error {
	return s.backend.Save(ctx, s.namespace, key, value)
}

// Remove is a no-op for missing keys.
func (s Store) Remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.namespace, key)
}
