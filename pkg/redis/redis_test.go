package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"ac-server/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAndHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(mr.Addr(), ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, HealthCheck(ctx, client))

	mr.Close()
	assert.Error(t, HealthCheck(ctx, client))
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestHealthCheckNilClient(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background(), nil))
}
