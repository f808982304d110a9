package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/navlight/booking-service/internal/sessions"
)

func TestMemoryStore_NoExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessions.NewMemoryStore(0)

	token, err := store.Issue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Validate(ctx, "bogus")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Revoke(ctx, token))
	ok, err = store.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := sessions.NewMemoryStore(time.Hour, sessions.WithClock(clock))

	token, err := store.Issue(ctx)
	require.NoError(t, err)

	ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(59 * time.Minute)
	ok, err = store.Validate(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStore_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := sessions.NewRedisStore(client, 0)

	mock.ExpectExists("navlight:admin:token:sometoken").SetVal(1)
	ok, err := store.Validate(ctx, "sometoken")
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExists("navlight:admin:token:unknown").SetVal(0)
	ok, err = store.Validate(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectDel("navlight:admin:token:sometoken").SetVal(1)
	require.NoError(t, store.Revoke(ctx, "sometoken"))

	require.NoError(t, mock.ExpectationsWereMet())
}
