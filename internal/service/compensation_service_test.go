package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ac-server/internal/model"
	"ac-server/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var steve = Player{UUID: "uuid-steve", Name: "Steve"}

func newCompensationService(t *testing.T, granter Granter) *CompensationService {
	t.Helper()
	cache, _, _ := newTestCache(t)
	return NewCompensationService(cache, granter, zap.NewNop(), metrics.New())
}

func diamonds() CompensationInput {
	return CompensationInput{
		Title: "维护补偿",
		Items: []model.RewardItem{
			{Material: "DIAMOND", Amount: 3},
			{Material: "GOLD_INGOT", Amount: 10, Lore: []string{"sorry"}},
		},
	}
}

func TestClaimGrantsOnceAndLogs(t *testing.T) {
	ctx := context.Background()
	granter := &fakeGranter{}
	svc := newCompensationService(t, granter)

	comp, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)
	assert.False(t, svc.IsClaimed(comp.ID, steve.UUID))

	res, err := svc.Claim(ctx, comp.ID, steve)
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Len(t, res.Granted, 2)
	assert.True(t, svc.IsClaimed(comp.ID, steve.UUID))
	assert.False(t, svc.IsClaimed(comp.ID, "uuid-alex"))

	_, err = svc.Claim(ctx, comp.ID, steve)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, 2, granter.count())

	logs := svc.cache.ClaimLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, comp.ID, logs[0].CompensationID)
	assert.Equal(t, "Steve", logs[0].PlayerName)
	assert.Equal(t, steve.UUID, logs[0].PlayerUUID)
}

func TestConcurrentClaimGrantsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	granter := &fakeGranter{}
	svc := newCompensationService(t, granter)
	comp, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(ctx, comp.ID, steve)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyClaimed):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, len(comp.Items), granter.count())

	logs := svc.cache.FilterClaimLogs(func(l *model.ClaimLog) bool {
		return l.CompensationID == comp.ID && l.PlayerUUID == steve.UUID
	})
	assert.Len(t, logs, 1)
	assert.Equal(t, 0, svc.locks.size())
}

func TestClaimWithFailedItemStillMarksClaimed(t *testing.T) {
	ctx := context.Background()
	granter := &fakeGranter{failFor: map[string]error{"GOLD_INGOT": errors.New("inventory full")}}
	svc := newCompensationService(t, granter)
	comp, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)

	res, err := svc.Claim(ctx, comp.ID, steve)
	require.NoError(t, err)
	assert.False(t, res.Complete())
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "GOLD_INGOT", res.Failed[0].Item.Material)
	assert.Equal(t, "inventory full", res.Failed[0].Error)
	assert.True(t, svc.IsClaimed(comp.ID, steve.UUID))
	assert.Len(t, svc.cache.ClaimLogs(), 1)
}

func TestClaimMissingCompensation(t *testing.T) {
	svc := newCompensationService(t, &fakeGranter{})
	_, err := svc.Claim(context.Background(), "missing", steve)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Claim(context.Background(), "missing", Player{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClaimAll(t *testing.T) {
	ctx := context.Background()
	cache, _, clk := newTestCache(t)
	granter := &fakeGranter{}
	svc := NewCompensationService(cache, granter, zap.NewNop(), nil)

	first, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)
	clk.Advance(time.Minute)
	second, err := svc.Create(ctx, "admin", CompensationInput{Title: "活动", Items: []model.RewardItem{{Material: "APPLE", Amount: 1}}})
	require.NoError(t, err)

	_, err = svc.Claim(ctx, first.ID, steve)
	require.NoError(t, err)

	unclaimed := svc.Unclaimed(steve.UUID)
	require.Len(t, unclaimed, 1)
	assert.Equal(t, second.ID, unclaimed[0].ID)

	results, err := svc.ClaimAll(ctx, steve)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, second.ID, results[0].CompensationID)

	_, err = svc.ClaimAll(ctx, steve)
	assert.ErrorIs(t, err, ErrNothingToClaim)
	assert.Len(t, cache.ClaimLogs(), 2)
}

func TestUpdateKeepsClaimStatus(t *testing.T) {
	ctx := context.Background()
	svc := newCompensationService(t, &fakeGranter{})
	comp, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)
	_, err = svc.Claim(ctx, comp.ID, steve)
	require.NoError(t, err)

	in := diamonds()
	in.Title = "维护补偿（修正）"
	updated, err := svc.Update(ctx, comp.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "维护补偿（修正）", updated.Title)
	assert.True(t, updated.ClaimedBy(steve.UUID))
	assert.Equal(t, comp.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompensationInputValidation(t *testing.T) {
	svc := newCompensationService(t, &fakeGranter{})
	_, err := svc.Create(context.Background(), "admin", CompensationInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), "admin", CompensationInput{
		Title: "bad",
		Items: []model.RewardItem{{Material: "STONE", Amount: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteCompensationKeepsLogs(t *testing.T) {
	ctx := context.Background()
	svc := newCompensationService(t, &fakeGranter{})
	comp, err := svc.Create(ctx, "admin", diamonds())
	require.NoError(t, err)
	_, err = svc.Claim(ctx, comp.ID, steve)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, comp.ID))
	assert.ErrorIs(t, svc.Delete(ctx, comp.ID), ErrNotFound)
	_, err = svc.Get(comp.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	logs := NewClaimLogService(svc.cache).ForCompensation(comp.ID)
	assert.Len(t, logs, 1)
}
