package system

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/persist"
	"github.com/emberwake/server/internal/world"
)

// playerSink receives player rows for durable storage.
type playerSink interface {
	UpsertBatch(ctx context.Context, players []persist.PlayerRow) error
}

// PersistJob flushes changed players to the database on a fixed cadence.
// Rows are collected and dirty flags cleared in one store transaction; the
// batch upsert runs outside it so the world never blocks on the database.
// A failed batch re-marks those players dirty so the next run retries them.
type PersistJob struct {
	store *world.Store
	sink  playerSink
	cfg   *config.Config
	log   *zap.Logger
}

func NewPersistJob(store *world.Store, sink playerSink, cfg *config.Config, log *zap.Logger) *PersistJob {
	return &PersistJob{store: store, sink: sink, cfg: cfg, log: log}
}

func (j *PersistJob) Name() string            { return "autosave" }
func (j *PersistJob) Interval() time.Duration { return j.cfg.Sim.AutosaveInterval }

func (j *PersistJob) Run(ctx context.Context) error {
	rows := j.collect(j.Name(), true)
	if len(rows) == 0 {
		return nil
	}
	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := j.sink.UpsertBatch(saveCtx, rows); err != nil {
		j.remarkDirty(rows)
		return fmt.Errorf("autosave %d players: %w", len(rows), err)
	}
	j.log.Info("autosave complete", zap.Int("players", len(rows)))
	return nil
}

// SaveAll persists every player regardless of dirty state. Called once on
// graceful shutdown so nothing is lost between autosave ticks.
func (j *PersistJob) SaveAll(ctx context.Context) error {
	rows := j.collect("save-all", false)
	if len(rows) == 0 {
		return nil
	}
	if err := j.sink.UpsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("save all %d players: %w", len(rows), err)
	}
	j.log.Info("final save complete", zap.Int("players", len(rows)))
	return nil
}

// collect snapshots the rows to save and clears dirty flags in the same
// transaction, so a write that lands between collect and upsert re-marks the
// player instead of being silently swallowed.
func (j *PersistJob) collect(label string, dirtyOnly bool) []persist.PlayerRow {
	var rows []persist.PlayerRow
	_ = j.store.Exec(label, func(tx *world.Tx) error {
		for _, p := range tx.Players() {
			if dirtyOnly && !p.Dirty {
				continue
			}
			rows = append(rows, PlayerToRow(p))
			if p.Dirty {
				p.Dirty = false
				tx.PutPlayer(p)
			}
		}
		return nil
	})
	return rows
}

func (j *PersistJob) remarkDirty(rows []persist.PlayerRow) {
	_ = j.store.Exec("autosave-retry", func(tx *world.Tx) error {
		for _, r := range rows {
			if p, ok := tx.Player(r.ID); ok && !p.Dirty {
				p.Dirty = true
				tx.PutPlayer(p)
			}
		}
		return nil
	})
}

// PlayerToRow maps a live player onto its persisted shape. Transient fields
// (online, combat, animation state) stay in memory only.
func PlayerToRow(p world.Player) persist.PlayerRow {
	return persist.PlayerRow{
		ID:     p.ID,
		Name:   p.Name,
		X:      p.X,
		Y:      p.Y,
		HP:     p.HP,
		MaxHP:  p.MaxHP,
		MP:     p.MP,
		MaxMP:  p.MaxMP,
		Level:  p.Level,
		Exp:    p.Exp,
		JobID:  p.JobID,
		Banned: p.Banned,
	}
}

// PlayerFromRow rehydrates a persisted row into a live player. Everyone
// comes back offline and idle; HP is restored to at least 1 so a player who
// logged out dead respawns standing.
func PlayerFromRow(r persist.PlayerRow) world.Player {
	hp := r.HP
	if hp <= 0 {
		hp = 1
	}
	return world.Player{
		ID:     r.ID,
		Name:   r.Name,
		X:      r.X,
		Y:      r.Y,
		HP:     hp,
		MaxHP:  r.MaxHP,
		MP:     r.MP,
		MaxMP:  r.MaxMP,
		Level:  r.Level,
		Exp:    r.Exp,
		JobID:  r.JobID,
		State:  world.StateIdle,
		Facing: world.FacingRight,
		Banned: r.Banned,
	}
}
