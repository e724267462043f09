package matchrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riftstats/riftstats/internal/adapters/database"
	"github.com/riftstats/riftstats/internal/config"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/reporting"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	newID func() (uuid.UUID, error)
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	return &Postgres{
		db:     db,
		schema: schema,
		newID:  uuid.NewV7,
	}
}

type dbSnapshot struct {
	ID          uuid.UUID `db:"id"`
	GeneratedAt time.Time `db:"generated_at"`
	PlayerCount int       `db:"player_count"`
}

type dbSnapshotPlayer struct {
	SnapshotID   uuid.UUID `db:"snapshot_id"`
	PlayerHandle string    `db:"player_handle"`
}

type dbMatchRecord struct {
	SnapshotID       uuid.UUID `db:"snapshot_id"`
	PlayerHandle     string    `db:"player_handle"`
	Position         int       `db:"position"`
	MatchID          string    `db:"match_id"`
	GameEndTimestamp int64     `db:"game_end_timestamp"`
	DurationSeconds  int       `db:"duration_seconds"`
	Win              bool      `db:"win"`
	Champion         string    `db:"champion"`
	Role             string    `db:"role"`
	Kills            int       `db:"kills"`
	Deaths           int       `db:"deaths"`
	Assists          int       `db:"assists"`
	KDA              float64   `db:"kda"`
	DamageTotal      int       `db:"damage_total"`
	DPM              float64   `db:"dpm"`
	GoldTotal        int       `db:"gold_total"`
	GPM              float64   `db:"gpm"`
	CSTotal          int       `db:"cs_total"`
	CSPerMin         float64   `db:"cs_per_min"`
	VisionScore      int       `db:"vision_score"`
	WardsPlaced      int       `db:"wards_placed"`
	WardsKilled      int       `db:"wards_killed"`
}

func toDBMatchRecord(snapshotID uuid.UUID, handle string, position int, r domain.MatchRecord) dbMatchRecord {
	return dbMatchRecord{
		SnapshotID:       snapshotID,
		PlayerHandle:     handle,
		Position:         position,
		MatchID:          r.MatchID,
		GameEndTimestamp: r.GameEndTimestamp,
		DurationSeconds:  r.DurationSeconds,
		Win:              r.Win,
		Champion:         r.Champion,
		Role:             string(r.Role),
		Kills:            r.Kills,
		Deaths:           r.Deaths,
		Assists:          r.Assists,
		KDA:              r.KDA,
		DamageTotal:      r.DamageTotal,
		DPM:              r.DPM,
		GoldTotal:        r.GoldTotal,
		GPM:              r.GPM,
		CSTotal:          r.CSTotal,
		CSPerMin:         r.CSPerMin,
		VisionScore:      r.VisionScore,
		WardsPlaced:      r.WardsPlaced,
		WardsKilled:      r.WardsKilled,
	}
}

func (r dbMatchRecord) toDomain() domain.MatchRecord {
	return domain.MatchRecord{
		MatchID:          r.MatchID,
		GameEndTimestamp: r.GameEndTimestamp,
		DurationSeconds:  r.DurationSeconds,
		Win:              r.Win,
		Champion:         r.Champion,
		Role:             domain.ParseRole(r.Role),
		Kills:            r.Kills,
		Deaths:           r.Deaths,
		Assists:          r.Assists,
		KDA:              r.KDA,
		DamageTotal:      r.DamageTotal,
		DPM:              r.DPM,
		GoldTotal:        r.GoldTotal,
		GPM:              r.GPM,
		CSTotal:          r.CSTotal,
		CSPerMin:         r.CSPerMin,
		VisionScore:      r.VisionScore,
		WardsPlaced:      r.WardsPlaced,
		WardsKilled:      r.WardsKilled,
	}
}

func (p *Postgres) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		_ = txx.Rollback()
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": p.schema,
		})
		return nil, err
	}

	return txx, nil
}

func (p *Postgres) ReplaceSnapshot(ctx context.Context, snapshot domain.Snapshot) (uuid.UUID, error) {
	snapshotID, err := p.newID()
	if err != nil {
		err := fmt.Errorf("failed to generate snapshot id: %w", err)
		reporting.Report(ctx, err)
		return uuid.Nil, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer txx.Rollback()

	// match_records and snapshot_players cascade
	if _, err := txx.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		err := fmt.Errorf("failed to delete previous snapshots: %w", err)
		reporting.Report(ctx, err)
		return uuid.Nil, err
	}

	_, err = txx.NamedExecContext(
		ctx,
		`INSERT INTO snapshots (id, generated_at, player_count)
		VALUES (:id, :generated_at, :player_count)`,
		dbSnapshot{
			ID:          snapshotID,
			GeneratedAt: snapshot.GeneratedAt,
			PlayerCount: len(snapshot.Players),
		},
	)
	if err != nil {
		err := fmt.Errorf("failed to insert snapshot: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"snapshotID": snapshotID.String(),
		})
		return uuid.Nil, err
	}

	handles := make([]string, 0, len(snapshot.Players))
	for handle := range snapshot.Players {
		handles = append(handles, handle)
	}
	slices.Sort(handles)

	players := make([]dbSnapshotPlayer, 0, len(handles))
	records := []dbMatchRecord{}
	for _, handle := range handles {
		players = append(players, dbSnapshotPlayer{SnapshotID: snapshotID, PlayerHandle: handle})
		for position, record := range snapshot.Players[handle] {
			records = append(records, toDBMatchRecord(snapshotID, handle, position, record))
		}
	}

	if len(players) > 0 {
		_, err = txx.NamedExecContext(
			ctx,
			`INSERT INTO snapshot_players (snapshot_id, player_handle)
			VALUES (:snapshot_id, :player_handle)`,
			players,
		)
		if err != nil {
			err := fmt.Errorf("failed to insert snapshot players: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"snapshotID": snapshotID.String(),
			})
			return uuid.Nil, err
		}
	}

	// Batched to stay below the postgres bind parameter limit
	for batch := range slices.Chunk(records, 500) {
		_, err = txx.NamedExecContext(
			ctx,
			`INSERT INTO match_records (
				snapshot_id, player_handle, position, match_id, game_end_timestamp, duration_seconds,
				win, champion, role, kills, deaths, assists, kda, damage_total, dpm, gold_total, gpm,
				cs_total, cs_per_min, vision_score, wards_placed, wards_killed
			) VALUES (
				:snapshot_id, :player_handle, :position, :match_id, :game_end_timestamp, :duration_seconds,
				:win, :champion, :role, :kills, :deaths, :assists, :kda, :damage_total, :dpm, :gold_total, :gpm,
				:cs_total, :cs_per_min, :vision_score, :wards_placed, :wards_killed
			)`,
			batch,
		)
		if err != nil {
			err := fmt.Errorf("failed to insert match records: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"snapshotID": snapshotID.String(),
			})
			return uuid.Nil, err
		}
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return uuid.Nil, err
	}

	return snapshotID, nil
}

func (p *Postgres) getLatestSnapshot(ctx context.Context) (domain.Snapshot, error) {
	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer txx.Rollback()

	var snapshot dbSnapshot
	err = txx.GetContext(ctx, &snapshot, "SELECT id, generated_at, player_count FROM snapshots ORDER BY generated_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("%w: no snapshot stored", domain.ErrNotFound)
	} else if err != nil {
		err := fmt.Errorf("failed to get snapshot: %w", err)
		reporting.Report(ctx, err)
		return domain.Snapshot{}, err
	}

	var handles []string
	err = txx.SelectContext(ctx, &handles, "SELECT player_handle FROM snapshot_players WHERE snapshot_id = $1", snapshot.ID)
	if err != nil {
		err := fmt.Errorf("failed to get snapshot players: %w", err)
		reporting.Report(ctx, err)
		return domain.Snapshot{}, err
	}

	var records []dbMatchRecord
	err = txx.SelectContext(
		ctx,
		&records,
		`SELECT * FROM match_records
		WHERE snapshot_id = $1
		ORDER BY player_handle, position`,
		snapshot.ID,
	)
	if err != nil {
		err := fmt.Errorf("failed to get match records: %w", err)
		reporting.Report(ctx, err)
		return domain.Snapshot{}, err
	}

	players := make(domain.PlayerDataset, len(handles))
	for _, handle := range handles {
		players[handle] = []domain.MatchRecord{}
	}
	for _, record := range records {
		players[record.PlayerHandle] = append(players[record.PlayerHandle], record.toDomain())
	}

	return domain.Snapshot{
		GeneratedAt: snapshot.GeneratedAt,
		Players:     players,
	}, nil
}

type StubMatchRepository struct{}

func (s *StubMatchRepository) ReplaceSnapshot(ctx context.Context, snapshot domain.Snapshot) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func NewStubMatchRepository() *StubMatchRepository {
	return &StubMatchRepository{}
}

// NewPostgresMatchRepositoryOrStub returns the stub when no database is configured.
// The returned func closes the connection.
func NewPostgresMatchRepositoryOrStub(ctx context.Context, conf config.Config, logger *slog.Logger) (MatchRepository, func(), error) {
	if conf.DatabaseURL() == "" {
		logger.InfoContext(ctx, "No database configured, match history is disabled")
		return NewStubMatchRepository(), func() {}, nil
	}

	schema := database.GetSchemaName(!conf.IsProduction())

	logger.InfoContext(ctx, "Initializing database connection")
	db, err := database.NewPostgresDatabase(conf.DatabaseURL())
	if err != nil {
		if conf.IsDevelopment() {
			logger.WarnContext(ctx, "Failed to connect to database. Falling back to stub repository.", "error", err.Error())
			return NewStubMatchRepository(), func() {}, nil
		}
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := database.NewDatabaseMigrator(db, logger.With("component", "migrator"))
	if err := migrator.Migrate(ctx, schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewPostgres(db, schema), func() { db.Close() }, nil
}
