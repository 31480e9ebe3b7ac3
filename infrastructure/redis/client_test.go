package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_EmptyAddress(t *testing.T) {
	client, err := redis.NewClient(redis.Config{})

	require.ErrorIs(t, err, redis.ErrEmptyAddress)
	assert.Nil(t, client)
}

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redis.NewClient(redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, redis.Ping(context.Background(), client))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := redis.NewClient(redis.Config{Address: addr})
	require.Error(t, err)
	assert.Nil(t, client)
}
