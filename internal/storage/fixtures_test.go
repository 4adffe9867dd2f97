package storage

import (
	"path/filepath"
	"testing"
	"time"

	"ac-server/config"
	"ac-server/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func sampleDataset() *Dataset {
	sendAt := t0.Add(2 * time.Hour)
	lastLogin := t0.Add(time.Hour)
	return &Dataset{
		Admins: []model.Admin{
			{ID: "a1", Username: "admin", PasswordHash: "$2a$10$hash", Permissions: []string{model.PermissionWildcard}, CreatedAt: t0, UpdatedAt: t0},
			{ID: "a2", Username: "ops", PasswordHash: "$2a$10$other", Permissions: []string{"ac.web.whitelist", "ac.web.log"}, CreatedAt: t0, UpdatedAt: t0.Add(time.Minute)},
		},
		Announcements: []model.Announcement{
			{ID: "n1", Name: "maint", Title: "Maintenance", Content: "Down at 5", Sent: true, Priority: 5, Author: "admin",
				ReadStatus: map[string]bool{"p1": true}, CreatedAt: t0, UpdatedAt: t0},
			{ID: "n2", Name: "event", Title: "Event", Content: "Soon", SendTime: &sendAt, Priority: 1, Author: "ops", CreatedAt: t0, UpdatedAt: t0},
		},
		Compensations: []model.Compensation{
			{ID: "c1", Title: "Sorry", Description: "Outage", Author: "admin",
				Items: []model.RewardItem{
					{Material: "DIAMOND", Amount: 3, CustomName: "Shiny", Lore: []string{"line one", "line two"}},
					{Material: "BREAD", Amount: 16},
				},
				ClaimStatus: map[string]bool{"p1": true, "p2": true},
				CreatedAt:   t0, UpdatedAt: t0},
		},
		Whitelist: []model.WhitelistEntry{
			{PlayerUUID: "u-1", PlayerName: "Steve", AddedBy: "admin", Reason: "friend", AddedAt: t0},
			{PlayerUUID: "u-2", PlayerName: "Alex", AddedBy: "ops", AddedAt: t0},
		},
		ClaimLogs: []model.ClaimLog{
			{ID: "l1", CompensationID: "c1", PlayerName: "Steve", PlayerUUID: "p1", ClaimTime: t0},
		},
		Users: []model.User{
			{ID: "s1", Username: "steve", Email: "steve@example.com", PasswordHash: "$2a$10$x", GameUUID: "p1",
				VerificationKey: "vk1", Verified: true, Permissions: []string{},
				QQ:          &model.QQBinding{OpenID: "open-1", UnionID: "union-1", Nickname: "S", BindTime: t0},
				LastLoginAt: &lastLogin, CreatedAt: t0, UpdatedAt: t0},
			{ID: "s2", Username: "alex", Email: "alex@example.com", PasswordHash: "$2a$10$y", VerificationKey: "vk2", CreatedAt: t0, UpdatedAt: t0},
		},
		EmailCodes: []model.EmailCode{
			{ID: "e1", Email: "alex@example.com", Purpose: model.PurposeRegister, Code: "123456", CreatedAt: t0, ExpiresAt: t0.Add(5 * time.Minute)},
		},
		WhitelistEnabled: true,
	}
}

func assertSameDataset(t *testing.T, want, got *Dataset) {
	t.Helper()
	assert.ElementsMatch(t, want.Admins, got.Admins)
	assert.ElementsMatch(t, want.Announcements, got.Announcements)
	assert.ElementsMatch(t, want.Compensations, got.Compensations)
	assert.ElementsMatch(t, want.Whitelist, got.Whitelist)
	assert.ElementsMatch(t, want.ClaimLogs, got.ClaimLogs)
	assert.ElementsMatch(t, want.Users, got.Users)
	assert.ElementsMatch(t, want.EmailCodes, got.EmailCodes)
	assert.Equal(t, want.WhitelistEnabled, got.WhitelistEnabled)
}

func newFileBackend(t *testing.T) *FileBackend {
	t.Helper()
	b, err := NewFileBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return b
}

func newSQLiteBackend(t *testing.T) *SQLBackend {
	t.Helper()
	b, err := OpenSQLBackend(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ac.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// backends 两种后端共用同一组行为测试
func backends(t *testing.T) map[string]func(*testing.T) Backend {
	return map[string]func(*testing.T) Backend{
		"file":   func(t *testing.T) Backend { return newFileBackend(t) },
		"sqlite": func(t *testing.T) Backend { return newSQLiteBackend(t) },
	}
}
