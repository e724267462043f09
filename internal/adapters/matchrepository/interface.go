package matchrepository

import (
	"context"

	"github.com/google/uuid"
	"github.com/riftstats/riftstats/internal/domain"
)

type MatchRepository interface {
	// ReplaceSnapshot stores snapshot as the only snapshot in the repository
	ReplaceSnapshot(ctx context.Context, snapshot domain.Snapshot) (uuid.UUID, error)
}
