package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "fulfillment")

	assert.Equal(t, "fulfillment:company_rating:c1", c.GenerateKey("company_rating", "c1"))
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"}, "fulfillment")

	assert.Error(t, err)
}
