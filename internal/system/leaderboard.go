package system

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/persist"
	"github.com/emberwake/server/internal/world"
)

// leaderboardSink receives the freshly ranked snapshot for durable storage.
type leaderboardSink interface {
	Replace(ctx context.Context, entries []persist.LeaderboardRow) error
}

// LeaderboardJob rebuilds the ranked top-N player view from scratch on every
// run. N is small, so a full recompute into fresh rows beats maintaining an
// incremental structure. The in-store view is replaced inside the
// transaction; the database snapshot is written after, outside the store
// lock, and a failed write only costs durability until the next run.
type LeaderboardJob struct {
	store *world.Store
	jobs  *data.JobTable
	sink  leaderboardSink // nil disables the durable snapshot
	cfg   *config.Config
	log   *zap.Logger
}

func NewLeaderboardJob(store *world.Store, jobs *data.JobTable, sink leaderboardSink,
	cfg *config.Config, log *zap.Logger) *LeaderboardJob {
	return &LeaderboardJob{store: store, jobs: jobs, sink: sink, cfg: cfg, log: log}
}

func (j *LeaderboardJob) Name() string            { return "leaderboard" }
func (j *LeaderboardJob) Interval() time.Duration { return j.cfg.Leaderboard.Interval }

func (j *LeaderboardJob) Run(ctx context.Context) error {
	var entries []world.LeaderboardEntry
	err := j.store.Exec(j.Name(), func(tx *world.Tx) error {
		entries = j.recompute(tx)
		tx.ReplaceLeaderboard(entries)
		return nil
	})
	if err != nil {
		return err
	}
	if j.sink == nil {
		return nil
	}

	rows := make([]persist.LeaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = persist.LeaderboardRow{
			Rank:     e.Rank,
			PlayerID: e.PlayerID,
			Name:     e.Name,
			Level:    e.Level,
			Exp:      e.Exp,
			Job:      e.Job,
		}
	}
	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := j.sink.Replace(saveCtx, rows); err != nil {
		j.log.Error("leaderboard snapshot save failed", zap.Error(err))
	}
	return nil
}

// recompute ranks every non-banned player by level, then experience, then
// ID for a stable order, and keeps the configured top slice.
func (j *LeaderboardJob) recompute(tx *world.Tx) []world.LeaderboardEntry {
	players := tx.Players()
	ranked := make([]world.Player, 0, len(players))
	for _, p := range players {
		if p.Banned {
			continue
		}
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Level != ranked[b].Level {
			return ranked[a].Level > ranked[b].Level
		}
		if ranked[a].Exp != ranked[b].Exp {
			return ranked[a].Exp > ranked[b].Exp
		}
		return ranked[a].ID < ranked[b].ID
	})
	if len(ranked) > j.cfg.Leaderboard.Size {
		ranked = ranked[:j.cfg.Leaderboard.Size]
	}

	entries := make([]world.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = world.LeaderboardEntry{
			Rank:     int32(i + 1),
			PlayerID: p.ID,
			Name:     p.Name,
			Level:    p.Level,
			Exp:      p.Exp,
			Job:      j.jobs.Label(p.JobID),
		}
	}
	return entries
}
