package app_test

import (
	"context"
	"testing"

	"github.com/riftstats/riftstats/internal/adapters/cache"
	"github.com/riftstats/riftstats/internal/app"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAccountProvider struct {
	t *testing.T

	routing string

	byRiotID    map[string]domain.Account
	byRiotIDErr error
	byPUUID     map[string]domain.Account
	byPUUIDErr  error

	byRiotIDCalls int
	byPUUIDCalls  int
}

func (m *mockAccountProvider) GetAccountByRiotID(ctx context.Context, routing string, handle domain.PlayerHandle) (domain.Account, error) {
	m.t.Helper()
	require.Equal(m.t, m.routing, routing)

	m.byRiotIDCalls++
	if m.byRiotIDErr != nil {
		return domain.Account{}, m.byRiotIDErr
	}
	account, ok := m.byRiotID[handle.String()]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (m *mockAccountProvider) GetAccountByPUUID(ctx context.Context, routing string, puuid string) (domain.Account, error) {
	m.t.Helper()
	require.Equal(m.t, m.routing, routing)

	m.byPUUIDCalls++
	if m.byPUUIDErr != nil {
		return domain.Account{}, m.byPUUIDErr
	}
	account, ok := m.byPUUID[puuid]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func TestBuildResolveIdentityWithCache(t *testing.T) {
	t.Parallel()

	faker := domain.PlayerHandle{GameName: "Faker", TagLine: "KR1"}

	t.Run("resolves and caches", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:        t,
			routing:  "asia",
			byRiotID: map[string]domain.Account{"Faker#KR1": {PUUID: "p-faker", GameName: "Faker", TagLine: "KR1"}},
		}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "asia")

		puuid, err := resolve(t.Context(), faker)
		require.NoError(t, err)
		require.Equal(t, "p-faker", puuid)

		puuid, err = resolve(t.Context(), faker)
		require.NoError(t, err)
		require.Equal(t, "p-faker", puuid)

		require.Equal(t, 1, provider.byRiotIDCalls)
	})

	t.Run("cache is case insensitive", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:        t,
			routing:  "asia",
			byRiotID: map[string]domain.Account{"Faker#KR1": {PUUID: "p-faker", GameName: "Faker", TagLine: "KR1"}},
		}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "asia")

		_, err := resolve(t.Context(), faker)
		require.NoError(t, err)

		puuid, err := resolve(t.Context(), domain.PlayerHandle{GameName: "faker", TagLine: "kr1"})
		require.NoError(t, err)
		require.Equal(t, "p-faker", puuid)

		require.Equal(t, 1, provider.byRiotIDCalls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:           t,
			routing:     "europe",
			byRiotIDErr: domain.ErrTemporarilyUnavailable,
		}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "europe")

		_, err := resolve(t.Context(), faker)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)

		provider.byRiotIDErr = nil
		provider.byRiotID = map[string]domain.Account{"Faker#KR1": {PUUID: "p-faker"}}

		puuid, err := resolve(t.Context(), faker)
		require.NoError(t, err)
		require.Equal(t, "p-faker", puuid)

		require.Equal(t, 2, provider.byRiotIDCalls)
	})

	t.Run("unknown player", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{t: t, routing: "europe"}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "europe")

		_, err := resolve(t.Context(), faker)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("account without puuid", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:        t,
			routing:  "europe",
			byRiotID: map[string]domain.Account{"Faker#KR1": {GameName: "Faker", TagLine: "KR1"}},
		}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "europe")

		_, err := resolve(t.Context(), faker)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid handle never reaches the provider", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{t: t, routing: "europe"}
		resolve := app.BuildResolveIdentityWithCache(cache.NewBasicCache[string](), provider, "europe")

		_, err := resolve(t.Context(), domain.PlayerHandle{GameName: "Faker"})
		require.ErrorIs(t, err, domain.ErrInvalidHandle)
		require.Zero(t, provider.byRiotIDCalls)
	})
}

func TestBuildResolveHandleWithCache(t *testing.T) {
	t.Parallel()

	t.Run("resolves and caches per routing", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:       t,
			routing: "asia",
			byPUUID: map[string]domain.Account{"p-faker": {PUUID: "p-faker", GameName: "Hide on bush", TagLine: "KR1"}},
		}
		resolve := app.BuildResolveHandleWithCache(cache.NewBasicCache[domain.PlayerHandle](), provider)

		for range 3 {
			handle, err := resolve(t.Context(), "asia", "p-faker")
			require.NoError(t, err)
			require.Equal(t, domain.PlayerHandle{GameName: "Hide on bush", TagLine: "KR1"}, handle)
		}

		require.Equal(t, 1, provider.byPUUIDCalls)
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{t: t, routing: "asia", byPUUIDErr: assert.AnError}
		resolve := app.BuildResolveHandleWithCache(cache.NewBasicCache[domain.PlayerHandle](), provider)

		_, err := resolve(t.Context(), "asia", "p-faker")
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("account without riot id", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{
			t:       t,
			routing: "asia",
			byPUUID: map[string]domain.Account{"p-faker": {PUUID: "p-faker"}},
		}
		resolve := app.BuildResolveHandleWithCache(cache.NewBasicCache[domain.PlayerHandle](), provider)

		_, err := resolve(t.Context(), "asia", "p-faker")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty puuid", func(t *testing.T) {
		t.Parallel()

		provider := &mockAccountProvider{t: t, routing: "asia"}
		resolve := app.BuildResolveHandleWithCache(cache.NewBasicCache[domain.PlayerHandle](), provider)

		_, err := resolve(t.Context(), "asia", "")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Zero(t, provider.byPUUIDCalls)
	})
}
