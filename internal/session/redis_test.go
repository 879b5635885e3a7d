package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/config"
	"loanflow/internal/common/database"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Minute)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	sess := newTestSession("USR001")
	sess.Step = models.StepLoanAmount
	sess.Append(models.RoleUser, "hello")
	sess.Data.Loan.Type = models.LoanTypeAuto
	sess.Eligibility = &models.EligibilityResult{RequestedAmount: 1000, IsEligible: true}
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, "USR001")
	require.NoError(t, err)
	assert.Equal(t, models.StepLoanAmount, got.Step)
	assert.Equal(t, models.LoanTypeAuto, got.Data.Loan.Type)
	require.NotNil(t, got.Eligibility)
	assert.True(t, got.Eligibility.IsEligible)
	require.Len(t, got.Log, 1)
	assert.Equal(t, "hello", got.Log[0].Content)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store := newRedisTestStore(t)

	_, err := store.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))
}

func TestRedisStoreDelete(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("USR001")))
	require.NoError(t, store.Delete(ctx, "USR001"))

	_, err := store.Get(ctx, "USR001")
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))
}

func TestRedisStoreCount(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, newTestSession("USR001")))
	require.NoError(t, store.Put(ctx, newTestSession("USR002")))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
