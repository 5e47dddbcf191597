package redisrepo_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hvella/go-session-server/users"
	"github.com/hvella/go-session-server/users/redisrepo"
)

func newTestRepo(t *testing.T) *redisrepo.Repo {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisrepo.New(client)
}

func testUser() *users.User {
	return &users.User{
		Email:        "alice@example.com",
		Name:         "Alice",
		Age:          30,
		PasswordHash: "$2a$10$fakehash",
		Role:         users.RoleUser,
	}
}

func TestCreateAndGetByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser()))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, 30, got.Age)
	require.Equal(t, users.RoleUser, got.Role)
	require.Empty(t, got.RefreshToken)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestSetRefreshTokenReplacesSlot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser()))

	require.NoError(t, repo.SetRefreshToken(ctx, "alice@example.com", "token-1"))
	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "token-1", got.RefreshToken)

	require.NoError(t, repo.SetRefreshToken(ctx, "alice@example.com", "token-2"))
	got, err = repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "token-2", got.RefreshToken)

	// Clearing the slot.
	require.NoError(t, repo.SetRefreshToken(ctx, "alice@example.com", ""))
	got, err = repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Empty(t, got.RefreshToken)
}

func TestSetRefreshTokenUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SetRefreshToken(context.Background(), "nobody@example.com", "token")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestFindFederatedPriorityOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	byName := &users.User{Email: "byname@example.com", Name: "Shared Name", Role: users.RoleUser}
	byEmail := &users.User{Email: "byemail@example.com", Name: "Other", Role: users.RoleUser}
	byGoogle := &users.User{Email: "bygoogle@example.com", Name: "Third", GoogleID: "g-123", Role: users.RoleUser}

	require.NoError(t, repo.Create(ctx, byName))
	require.NoError(t, repo.Create(ctx, byEmail))
	require.NoError(t, repo.Create(ctx, byGoogle))

	// Name match wins over email and provider ID.
	got, err := repo.FindFederated(ctx, "Shared Name", "byemail@example.com", "g-123")
	require.NoError(t, err)
	require.Equal(t, "byname@example.com", got.Email)

	// Email match when the name misses.
	got, err = repo.FindFederated(ctx, "Unknown Name", "byemail@example.com", "g-123")
	require.NoError(t, err)
	require.Equal(t, "byemail@example.com", got.Email)

	// Provider ID as the last resort.
	got, err = repo.FindFederated(ctx, "Unknown Name", "unknown@example.com", "g-123")
	require.NoError(t, err)
	require.Equal(t, "bygoogle@example.com", got.Email)

	_, err = repo.FindFederated(ctx, "Unknown Name", "unknown@example.com", "g-999")
	require.ErrorIs(t, err, users.ErrNotFound)
}
