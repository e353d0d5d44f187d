package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/world"
)

// CleanupJob removes corpses past their grace window, cascading their
// cooldown records and damage events, and expires stale damage events on
// their own TTL. Every pass is idempotent: rerunning over an already-clean
// world removes nothing.
type CleanupJob struct {
	store *world.Store
	cfg   *config.Config
	log   *zap.Logger
}

func NewCleanupJob(store *world.Store, cfg *config.Config, log *zap.Logger) *CleanupJob {
	return &CleanupJob{store: store, cfg: cfg, log: log}
}

func (j *CleanupJob) Name() string            { return "cleanup" }
func (j *CleanupJob) Interval() time.Duration { return j.cfg.Sim.CleanupInterval }

func (j *CleanupJob) Run(ctx context.Context) error {
	return j.store.Exec(j.Name(), j.tick)
}

func (j *CleanupJob) tick(tx *world.Tx) error {
	now := tx.Now()

	corpses := 0
	for _, s := range tx.Spawns() {
		if s.State != world.StateDead {
			continue
		}
		if now.Sub(s.UpdatedAt) < j.cfg.Sim.DeadGrace {
			continue // corpse still visible for the death animation
		}
		if tx.DeleteSpawnCascade(s.ID) {
			corpses++
		}
	}

	events := 0
	for _, ev := range tx.PlayerDamageEvents() {
		if now.Sub(ev.At) >= j.cfg.Sim.DamageEventTTL && tx.DeletePlayerDamage(ev.ID) {
			events++
		}
	}
	for _, ev := range tx.EnemyDamageEvents() {
		if now.Sub(ev.At) >= j.cfg.Sim.DamageEventTTL && tx.DeleteEnemyDamage(ev.ID) {
			events++
		}
	}

	if corpses > 0 || events > 0 {
		j.log.Debug("cleanup pass",
			zap.Int("corpses", corpses),
			zap.Int("damage_events", events))
	}
	return nil
}

// BroadcastSweepJob expires broadcast lines past their TTL. Broadcasts age
// out on a slower clock than damage events, so the sweep runs as its own
// job instead of riding the cleanup tick.
type BroadcastSweepJob struct {
	store *world.Store
	cfg   *config.Config
	log   *zap.Logger
}

func NewBroadcastSweepJob(store *world.Store, cfg *config.Config, log *zap.Logger) *BroadcastSweepJob {
	return &BroadcastSweepJob{store: store, cfg: cfg, log: log}
}

func (j *BroadcastSweepJob) Name() string            { return "broadcast-sweep" }
func (j *BroadcastSweepJob) Interval() time.Duration { return j.cfg.Sim.BroadcastInterval }

func (j *BroadcastSweepJob) Run(ctx context.Context) error {
	return j.store.Exec(j.Name(), func(tx *world.Tx) error {
		now := tx.Now()
		for _, b := range tx.Broadcasts() {
			if now.Sub(b.At) >= j.cfg.Sim.BroadcastTTL {
				tx.DeleteBroadcast(b.ID)
			}
		}
		return nil
	})
}
