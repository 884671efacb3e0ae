package cache

import (
	"context"
	"time"
)

// Cache stores short-lived string values. Get returns "" on a miss.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	GenerateKey(operation, key string) string
}

type nop struct{}

// Nop returns a Cache that never holds anything
func Nop() Cache { return nop{} }

func (nop) Set(context.Context, string, string, time.Duration) error { return nil }
func (nop) Get(context.Context, string) (string, error)              { return "", nil }
func (nop) Delete(context.Context, string) error                     { return nil }
func (nop) GenerateKey(operation, key string) string                 { return operation + ":" + key }
