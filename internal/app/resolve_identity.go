package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/riftstats/riftstats/internal/adapters/cache"
	"github.com/riftstats/riftstats/internal/domain"
)

type ResolveIdentity func(ctx context.Context, handle domain.PlayerHandle) (string, error)

type ResolveHandle func(ctx context.Context, routing string, puuid string) (domain.PlayerHandle, error)

type accountProviderByRiotID interface {
	GetAccountByRiotID(ctx context.Context, routing string, handle domain.PlayerHandle) (domain.Account, error)
}

type accountProviderByPUUID interface {
	GetAccountByPUUID(ctx context.Context, routing string, puuid string) (domain.Account, error)
}

func BuildResolveIdentityWithCache(
	puuidByHandleCache cache.Cache[string],
	provider accountProviderByRiotID,
	routing string,
) ResolveIdentity {
	return func(ctx context.Context, handle domain.PlayerHandle) (string, error) {
		if handle.GameName == "" || handle.TagLine == "" {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidHandle, handle.String())
		}

		// Riot ids are case insensitive
		key := strings.ToLower(handle.String())

		puuid, _, err := cache.GetOrCreate(ctx, puuidByHandleCache, key, func() (string, error) {
			// NOTE: provider implementations handle their own error reporting
			account, err := provider.GetAccountByRiotID(ctx, routing, handle)
			if err != nil {
				return "", err
			}
			if account.PUUID == "" {
				return "", fmt.Errorf("%w: account without puuid", domain.ErrNotFound)
			}
			return account.PUUID, nil
		})
		if err != nil {
			return "", fmt.Errorf("could not resolve %s: %w", handle, err)
		}

		return puuid, nil
	}
}

func BuildResolveHandleWithCache(
	handleByPUUIDCache cache.Cache[domain.PlayerHandle],
	provider accountProviderByPUUID,
) ResolveHandle {
	return func(ctx context.Context, routing string, puuid string) (domain.PlayerHandle, error) {
		if puuid == "" {
			return domain.PlayerHandle{}, fmt.Errorf("%w: empty puuid", domain.ErrNotFound)
		}

		key := routing + ":" + puuid

		handle, _, err := cache.GetOrCreate(ctx, handleByPUUIDCache, key, func() (domain.PlayerHandle, error) {
			account, err := provider.GetAccountByPUUID(ctx, routing, puuid)
			if err != nil {
				return domain.PlayerHandle{}, err
			}
			if account.GameName == "" {
				return domain.PlayerHandle{}, fmt.Errorf("%w: account without riot id", domain.ErrNotFound)
			}
			return account.Handle(), nil
		})
		if err != nil {
			return domain.PlayerHandle{}, fmt.Errorf("could not resolve handle for puuid: %w", err)
		}

		return handle, nil
	}
}
