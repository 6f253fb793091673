package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirlaunch/internal/core/domain"
)

var testPeriodNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newEntitlementFixture(t *testing.T, acct domain.Account) (*memStore, *EntitlementService) {
	t.Helper()
	store := newMemStore()
	store.accounts[acct.ID] = acct
	svc := NewEntitlementService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testPeriodNow }
	return store, svc
}

func seedAllocation(store *memStore, userID string, base, used int) *domain.MonthlyAllocation {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.allocSeq++
	alloc := &domain.MonthlyAllocation{
		ID:              store.allocSeq,
		UserID:          userID,
		Period:          domain.Period(testPeriodNow),
		BaseAllocation:  base,
		SubmissionsUsed: used,
	}
	store.allocs[alloc.ID] = alloc
	store.allocIdx[userID+"|"+alloc.Period] = alloc.ID
	return alloc
}

// Consumption drains the subscription allocation before any pack, then
// packs oldest-created first, leaving later packs untouched.
func TestConsumeSpendsSubscriptionThenOldestPacks(t *testing.T) {
	acct := domain.Account{ID: "u-1", Plan: "starter", SubscriptionStatus: "active"}
	store, svc := newEntitlementFixture(t, acct)
	alloc := seedAllocation(store, acct.ID, 3, 0)
	pack1 := store.addPack(acct.ID, 4, 0, domain.PackStatusActive)
	pack2 := store.addPack(acct.ID, 6, 0, domain.PackStatusActive)

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.LockAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.NoError(t, svc.consume(ctx, tx, &acct, 5))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 3, alloc.SubmissionsUsed)
	assert.Equal(t, 2, pack1.DirectoriesSubmitted)
	assert.Zero(t, pack2.DirectoriesSubmitted)

	ent, err := svc.Calculate(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, ent.Total)
	assert.Equal(t, 5, ent.Used)
	assert.Equal(t, 8, ent.Remaining)
}

// A partially drained old pack is finished before the next one is opened.
func TestConsumeFinishesPartialPackFirst(t *testing.T) {
	acct := domain.Account{ID: "u-1", Plan: "free"}
	store, svc := newEntitlementFixture(t, acct)
	pack1 := store.addPack(acct.ID, 5, 4, domain.PackStatusActive)
	pack2 := store.addPack(acct.ID, 5, 0, domain.PackStatusActive)

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.LockAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.NoError(t, svc.consume(ctx, tx, &acct, 3))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 5, pack1.DirectoriesSubmitted)
	assert.Equal(t, 2, pack2.DirectoriesSubmitted)
}

func TestCalculate(t *testing.T) {
	t.Run("subscriber allocation created lazily", func(t *testing.T) {
		acct := domain.Account{ID: "u-1", Plan: "growth", SubscriptionStatus: "active"}
		store, svc := newEntitlementFixture(t, acct)
		store.addPack(acct.ID, 10, 2, domain.PackStatusProcessing)

		ent, err := svc.Calculate(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.True(t, ent.IsSubscriber)
		assert.Equal(t, 75, ent.Subscription.Remaining)
		assert.Equal(t, 8, ent.Orders.Remaining)
		assert.Equal(t, 83, ent.Remaining)

		// the period row now exists
		store.mu.Lock()
		_, ok := store.allocIdx[acct.ID+"|"+domain.Period(testPeriodNow)]
		store.mu.Unlock()
		assert.True(t, ok)
	})

	t.Run("plan aliases resolve", func(t *testing.T) {
		acct := domain.Account{ID: "u-1", Plan: "Pro", SubscriptionStatus: "trialing"}
		_, svc := newEntitlementFixture(t, acct)

		ent, err := svc.Calculate(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.Equal(t, 75, ent.Subscription.Total)
	})

	t.Run("canceled subscription grants no allocation", func(t *testing.T) {
		acct := domain.Account{ID: "u-1", Plan: "scale", SubscriptionStatus: "canceled"}
		store, svc := newEntitlementFixture(t, acct)
		store.addPack(acct.ID, 10, 0, domain.PackStatusActive)

		ent, err := svc.Calculate(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.False(t, ent.IsSubscriber)
		assert.Zero(t, ent.Subscription.Total)
		assert.Equal(t, 10, ent.Remaining)
	})

	t.Run("unknown plan treated as free", func(t *testing.T) {
		acct := domain.Account{ID: "u-1", Plan: "enterprise-legacy", SubscriptionStatus: "active"}
		_, svc := newEntitlementFixture(t, acct)

		ent, err := svc.Calculate(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.False(t, ent.IsSubscriber)
		assert.Zero(t, ent.Remaining)
	})

	t.Run("exhausted and refunded packs ignored", func(t *testing.T) {
		acct := domain.Account{ID: "u-1", Plan: "free"}
		store, svc := newEntitlementFixture(t, acct)
		store.addPack(acct.ID, 10, 10, domain.PackStatusExhausted)
		store.addPack(acct.ID, 10, 0, domain.PackStatusRefunded)
		store.addPack(acct.ID, 10, 3, domain.PackStatusActive)

		ent, err := svc.Calculate(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, ent.Orders.Total)
		assert.Equal(t, 7, ent.Remaining)
	})
}

// An over-drawn allocation row never reports negative remaining.
func TestRemainingFloorsAtZero(t *testing.T) {
	acct := domain.Account{ID: "u-1", Plan: "starter", SubscriptionStatus: "active"}
	store, svc := newEntitlementFixture(t, acct)
	seedAllocation(store, acct.ID, 25, 30)

	ent, err := svc.Calculate(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Zero(t, ent.Subscription.Remaining)
	assert.Equal(t, 30, ent.Used)
}
