package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

func newTestSession(userID string) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        "sess-" + userID,
		UserID:    userID,
		Step:      models.StepGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := newTestSession("USR001")
	sess.Append(models.RoleAgent, "hello")
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, "USR001")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Len(t, got.Log, 1)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	_, err := store.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))
}

// Mutating a retrieved session must not affect the stored copy.
func TestMemoryStoreCloneIsolation(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := newTestSession("USR001")
	sess.Append(models.RoleAgent, "hello")
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, "USR001")
	require.NoError(t, err)
	got.Append(models.RoleUser, "mutated")
	got.Step = models.StepFinalDecision

	fresh, err := store.Get(ctx, "USR001")
	require.NoError(t, err)
	assert.Len(t, fresh.Log, 1)
	assert.Equal(t, models.StepGreeting, fresh.Step)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("USR001")))
	require.NoError(t, store.Delete(ctx, "USR001"))

	_, err := store.Get(ctx, "USR001")
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("USR001")))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, "USR001")
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryStoreCount(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newTestSession("USR001")))
	require.NoError(t, store.Put(ctx, newTestSession("USR002")))
	require.NoError(t, store.Put(ctx, newTestSession("USR001"))) // overwrite

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStoreLockSerializes(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	unlock := store.Lock("USR001")
	acquired := make(chan struct{})
	go func() {
		u := store.Lock("USR001")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}

// Locks for different sessions are independent.
func TestMemoryStoreLockPerKey(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	unlock1 := store.Lock("USR001")
	defer unlock1()

	done := make(chan struct{})
	go func() {
		u := store.Lock("USR002")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different session blocked")
	}
}
