package system

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/handler"
	"github.com/emberwake/server/internal/world"
)

// SpawnJob tops route populations back up on a fixed cadence. Each route
// carries its own spawn interval; a route is only refilled once that
// interval has elapsed since its last interval fill. Boss summons refill
// routes through the same primitive but never move the interval clock.
type SpawnJob struct {
	store    *world.Store
	enemies  *data.EnemyTable
	bosses   *data.BossTable
	interval time.Duration
	rng      *rand.Rand
	log      *zap.Logger
}

func NewSpawnJob(store *world.Store, enemies *data.EnemyTable, bosses *data.BossTable, interval time.Duration, rng *rand.Rand, log *zap.Logger) *SpawnJob {
	return &SpawnJob{
		store:    store,
		enemies:  enemies,
		bosses:   bosses,
		interval: interval,
		rng:      rng,
		log:      log,
	}
}

func (j *SpawnJob) Name() string            { return "spawn-check" }
func (j *SpawnJob) Interval() time.Duration { return j.interval }

func (j *SpawnJob) Run(ctx context.Context) error {
	return j.store.Exec(j.Name(), j.tick)
}

func (j *SpawnJob) tick(tx *world.Tx) error {
	now := tx.Now()
	for _, route := range tx.Routes() {
		if now.Sub(route.LastSpawnAt) < route.SpawnEvery {
			continue
		}
		created, err := handler.FillRoute(tx, j.rng, route, j.enemies, j.bosses)
		if err != nil {
			// Missing template: skip without moving the clock so the
			// route retries on the next check.
			j.log.Warn("route fill skipped",
				zap.Int32("route_id", route.ID),
				zap.Error(err))
			continue
		}
		route.LastSpawnAt = now
		tx.PutRoute(route)
		if created == 0 {
			continue
		}
		j.log.Debug("route filled",
			zap.Int32("route_id", route.ID),
			zap.String("type", route.Type),
			zap.Int("created", created))
		if route.Kind == world.KindBoss {
			tx.AppendBroadcast(world.Broadcast{
				Kind: world.BroadcastBoss,
				Text: fmt.Sprintf("%s has appeared!", route.Type),
			})
		}
	}
	return nil
}
