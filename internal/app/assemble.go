package app

import (
	"time"

	"github.com/riftstats/riftstats/internal/domain"
)

// AssembleSnapshot stamps the dataset with the current time. No merging with earlier snapshots.
func AssembleSnapshot(records domain.PlayerDataset, nowFunc func() time.Time) domain.Snapshot {
	if records == nil {
		records = domain.PlayerDataset{}
	}
	return domain.Snapshot{
		GeneratedAt: nowFunc(),
		Players:     records,
	}
}
