package matchrepository

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riftstats/riftstats/internal/adapters/database"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/stretchr/testify/require"
)

func newPostgres(t *testing.T, db *sqlx.DB, schemaSuffix string) *Postgres {
	require.NotEmpty(t, schemaSuffix, "schemaSuffix must not be empty")
	schema := fmt.Sprintf("match_repo_test_%s", schemaSuffix)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	migrator := database.NewDatabaseMigrator(db, logger)
	require.NoError(t, migrator.Migrate(t.Context(), schema))

	return NewPostgres(db, schema)
}

func record(matchID string, durationSeconds int) domain.MatchRecord {
	minutes := float64(durationSeconds) / 60
	return domain.MatchRecord{
		MatchID:          matchID,
		GameEndTimestamp: 1735740000000,
		DurationSeconds:  durationSeconds,
		Win:              true,
		Champion:         "Ahri",
		Role:             domain.RoleMiddle,
		Kills:            7,
		Deaths:           2,
		Assists:          9,
		KDA:              8,
		DamageTotal:      27000,
		DPM:              27000 / minutes,
		GoldTotal:        12600,
		GPM:              12600 / minutes,
		CSTotal:          222,
		CSPerMin:         222 / minutes,
		VisionScore:      31,
		WardsPlaced:      11,
		WardsKilled:      4,
	}
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	generatedAt := time.Date(2025, time.March, 4, 18, 7, 33, 0, time.UTC)

	t.Run("empty repository", func(t *testing.T) {
		t.Parallel()
		p := newPostgres(t, db, "empty")

		_, err := p.getLatestSnapshot(t.Context())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		p := newPostgres(t, db, "round_trip")

		snapshot := domain.Snapshot{
			GeneratedAt: generatedAt,
			Players: domain.PlayerDataset{
				"Faker#T1":   {record("EUW1_3", 1500), record("EUW1_1", 1200)},
				"Caps#EUW":   {record("EUW1_2", 1800)},
				"Nobody#EUW": {},
			},
		}

		id, err := p.ReplaceSnapshot(t.Context(), snapshot)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)

		stored, err := p.getLatestSnapshot(t.Context())
		require.NoError(t, err)
		require.True(t, generatedAt.Equal(stored.GeneratedAt))
		require.Equal(t, snapshot.Players, stored.Players)
	})

	t.Run("replaces the previous snapshot", func(t *testing.T) {
		t.Parallel()
		p := newPostgres(t, db, "replace")

		_, err := p.ReplaceSnapshot(t.Context(), domain.Snapshot{
			GeneratedAt: generatedAt,
			Players:     domain.PlayerDataset{"Faker#T1": {record("EUW1_1", 1200)}},
		})
		require.NoError(t, err)

		_, err = p.ReplaceSnapshot(t.Context(), domain.Snapshot{
			GeneratedAt: generatedAt.Add(time.Hour),
			Players:     domain.PlayerDataset{"Caps#EUW": {record("EUW1_2", 1800)}},
		})
		require.NoError(t, err)

		stored, err := p.getLatestSnapshot(t.Context())
		require.NoError(t, err)
		require.True(t, generatedAt.Add(time.Hour).Equal(stored.GeneratedAt))
		require.Equal(t, domain.PlayerDataset{"Caps#EUW": {record("EUW1_2", 1800)}}, stored.Players)

		var count int
		require.NoError(t, db.Get(&count, fmt.Sprintf("SELECT COUNT(*) FROM %s.match_records", pq.QuoteIdentifier(p.schema))))
		require.Equal(t, 1, count)
	})

	t.Run("failed replace keeps the previous snapshot", func(t *testing.T) {
		t.Parallel()
		p := newPostgres(t, db, "failed_replace")

		_, err := p.ReplaceSnapshot(t.Context(), domain.Snapshot{
			GeneratedAt: generatedAt,
			Players:     domain.PlayerDataset{"Faker#T1": {record("EUW1_1", 1200)}},
		})
		require.NoError(t, err)

		// Violates the duration check constraint
		_, err = p.ReplaceSnapshot(t.Context(), domain.Snapshot{
			GeneratedAt: generatedAt.Add(time.Hour),
			Players:     domain.PlayerDataset{"Caps#EUW": {record("EUW1_2", 100)}},
		})
		require.Error(t, err)

		stored, err := p.getLatestSnapshot(t.Context())
		require.NoError(t, err)
		require.Equal(t, domain.PlayerDataset{"Faker#T1": {record("EUW1_1", 1200)}}, stored.Players)
	})
}

func TestStubMatchRepository(t *testing.T) {
	t.Parallel()

	stub := NewStubMatchRepository()

	id, err := stub.ReplaceSnapshot(t.Context(), domain.Snapshot{})
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, id)
}
