package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminService(t *testing.T) *AdminService {
	t.Helper()
	cache, _, clk := newTestCache(t)
	_, err := BootstrapAdmin(context.Background(), cache, config.AdminConfig{Username: "root", Password: "secret"}, zap.NewNop())
	require.NoError(t, err)
	return NewAdminService(cache, newSessions(clk), zap.NewNop())
}

func TestAdminLoginAndResolve(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	_, _, err := svc.Login(ctx, "root", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, admin, err := svc.Login(ctx, "root", "secret")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, "root", admin.Username)

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "root", resolved.Username)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminAuthorize(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	_, err := svc.Create(ctx, AdminInput{
		Username:    "editor",
		Password:    "pw",
		Permissions: []string{"ac.web.announcement", "ac.web.bogus"},
	})
	require.NoError(t, err)
	editor, err := svc.Get("editor")
	require.NoError(t, err)
	assert.Equal(t, []string{"ac.web.announcement"}, editor.Permissions)

	assert.NoError(t, svc.Authorize("editor", model.CapAnnouncement))
	assert.ErrorIs(t, svc.Authorize("editor", model.CapCompensation), ErrForbidden)
	assert.ErrorIs(t, svc.AuthorizeAll("editor"), ErrForbidden)
	assert.NoError(t, svc.Authorize("root", model.CapWhitelist))
	assert.NoError(t, svc.AuthorizeAll("root"))
	assert.ErrorIs(t, svc.Authorize("ghost", model.CapLog), ErrForbidden)

	_, err = svc.Create(ctx, AdminInput{Username: "editor", Password: "pw"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAdminDelete(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	assert.ErrorIs(t, svc.Delete(ctx, "root"), ErrLastAdmin)

	_, err := svc.Create(ctx, AdminInput{Username: "ops", Password: "pw"})
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "ops", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "ops"))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Delete(ctx, "ops"), ErrNotFound)

	names := []string{}
	for _, a := range svc.List() {
		names = append(names, a.Username)
	}
	assert.Equal(t, []string{"root"}, names)
}

func TestAdminChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	assert.ErrorIs(t, svc.ChangePassword(ctx, "root", "wrong", "next"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, "root", "secret", "next"))

	a, err := svc.Get("root")
	require.NoError(t, err)
	assert.True(t, password.Verify("next", a.PasswordHash))
	assert.ErrorIs(t, svc.ChangePassword(ctx, "ghost", "x", "y"), ErrNotFound)
}

func TestAdminConcurrentDeleteKeepsOne(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)
	_, err := svc.Create(ctx, AdminInput{Username: "ops", Password: "pw"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"root", "ops"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = svc.Delete(ctx, name)
		}(i, name)
	}
	wg.Wait()

	lastAdmin := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrLastAdmin)
			lastAdmin++
		}
	}
	assert.Equal(t, 1, lastAdmin)
	assert.Len(t, svc.List(), 1)
}

func TestAdminConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, AdminInput{Username: "ops", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrAlreadyExists):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 9, taken)
	assert.Len(t, svc.List(), 2)
}
