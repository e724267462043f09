package snapshotstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
)

const LastUpdateLayout = "2006-01-02 15:04"

type matchRecordJSON struct {
	MatchID          string  `json:"match_id"`
	GameEndTimestamp int64   `json:"game_end_timestamp"`
	DurationSeconds  int     `json:"duration_seconds"`
	Win              bool    `json:"win"`
	Champion         string  `json:"champion"`
	Role             string  `json:"role"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
	Assists          int     `json:"assists"`
	KDA              float64 `json:"kda"`
	DamageTotal      int     `json:"damage_total"`
	DPM              float64 `json:"dpm"`
	GoldTotal        int     `json:"gold_total"`
	GPM              float64 `json:"gpm"`
	CSTotal          int     `json:"cs_total"`
	CSPerMin         float64 `json:"cs_per_min"`
	VisionScore      int     `json:"vision_score"`
	WardsPlaced      int     `json:"wards_placed"`
	WardsKilled      int     `json:"wards_killed"`
}

type snapshotJSON struct {
	LastUpdate string                       `json:"last_update"`
	Players    map[string][]matchRecordJSON `json:"players"`
}

type leaderboardEntryJSON struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	LP      int     `json:"lp"`
	Winrate float64 `json:"winrate"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Tier    string  `json:"tier"`
}

type leaderboardSnapshotJSON struct {
	LastUpdate string                            `json:"last_update"`
	Regions    map[string][]leaderboardEntryJSON `json:"regions"`
}

func snapshotToJSON(snapshot domain.Snapshot) snapshotJSON {
	players := make(map[string][]matchRecordJSON, len(snapshot.Players))
	for handle, records := range snapshot.Players {
		converted := make([]matchRecordJSON, 0, len(records))
		for _, r := range records {
			converted = append(converted, matchRecordJSON{
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
			})
		}
		players[handle] = converted
	}

	return snapshotJSON{
		LastUpdate: snapshot.GeneratedAt.UTC().Format(LastUpdateLayout),
		Players:    players,
	}
}

func leaderboardToJSON(snapshot domain.LeaderboardSnapshot) leaderboardSnapshotJSON {
	regions := make(map[string][]leaderboardEntryJSON, len(snapshot.Regions))
	for region, entries := range snapshot.Regions {
		converted := make([]leaderboardEntryJSON, 0, len(entries))
		for _, e := range entries {
			converted = append(converted, leaderboardEntryJSON{
				Rank:    e.Rank,
				Name:    e.Name,
				LP:      e.LP,
				Winrate: e.Winrate,
				Wins:    e.Wins,
				Losses:  e.Losses,
				Tier:    e.Tier,
			})
		}
		regions[region] = converted
	}

	return leaderboardSnapshotJSON{
		LastUpdate: snapshot.GeneratedAt.UTC().Format(LastUpdateLayout),
		Regions:    regions,
	}
}

// FileStore writes snapshots as indented JSON documents, replacing the previous file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	return s.write(ctx, snapshotToJSON(snapshot))
}

func (s *FileStore) SaveLeaderboard(ctx context.Context, snapshot domain.LeaderboardSnapshot) error {
	return s.write(ctx, leaderboardToJSON(snapshot))
}

func (s *FileStore) write(ctx context.Context, document any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Wrote snapshot", "path", s.path, "bytes", buf.Len())
	return nil
}

// Readers see either the old file or the new one, never a partial write
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
