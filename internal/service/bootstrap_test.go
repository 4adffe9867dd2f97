package service

import (
	"context"
	"testing"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	ctx := context.Background()
	cache, facade, clk := newTestCache(t)

	res, err := BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "secret"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BootstrapCreatedFirst, res)

	persisted := reload(t, facade, clk)
	admins := persisted.Admins()
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Username)
	assert.Equal(t, []string{model.PermissionWildcard}, admins[0].Permissions)
	assert.True(t, password.Verify("secret", admins[0].PasswordHash))
}

func TestBootstrapDefaultsWhenUnconfigured(t *testing.T) {
	cache, _, _ := newTestCache(t)

	_, err := BootstrapAdmin(context.Background(), cache, config.AdminConfig{}, zap.NewNop())
	require.NoError(t, err)

	a, ok := cache.FindAdmin(defaultAdminUsername)
	require.True(t, ok)
	assert.True(t, password.Verify(defaultAdminPassword, a.PasswordHash))
}

func TestBootstrapKeepsPreHashedPassword(t *testing.T) {
	hash, err := password.Hash("secret")
	require.NoError(t, err)
	cache, _, _ := newTestCache(t)

	_, err = BootstrapAdmin(context.Background(), cache, config.AdminConfig{Username: "root", Password: hash}, zap.NewNop())
	require.NoError(t, err)

	a, ok := cache.FindAdmin("root")
	require.True(t, ok)
	assert.Equal(t, hash, a.PasswordHash)
}

func TestBootstrapIgnoresConfigWithoutOverride(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newTestCache(t)
	_, err := BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "original"}, zap.NewNop())
	require.NoError(t, err)

	res, err := BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "other"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BootstrapUnchanged, res)

	a, _ := cache.FindAdmin("admin")
	assert.True(t, password.Verify("original", a.PasswordHash))
	assert.False(t, password.Verify("other", a.PasswordHash))
}

func TestBootstrapOverride(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newTestCache(t)
	_, err := BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "original"}, zap.NewNop())
	require.NoError(t, err)

	res, err := BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "ops", Password: "ops-pass", Override: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BootstrapCreatedOverride, res)
	assert.Equal(t, 2, cache.AdminCount())

	res, err = BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "rotated", Override: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BootstrapPasswordUpdated, res)
	a, _ := cache.FindAdmin("admin")
	assert.True(t, password.Verify("rotated", a.PasswordHash))

	res, err = BootstrapAdmin(ctx, cache, config.AdminConfig{Username: "admin", Password: "rotated", Override: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BootstrapUnchanged, res)

	ops, _ := cache.FindAdmin("ops")
	assert.True(t, password.Verify("ops-pass", ops.PasswordHash))
}
