package system

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/world"
)

// PatrolJob drives every regular hostile through its idle/walk/damaged state
// machine: damaged recovery, aggro acquisition and loss, chase movement, and
// route pacing. Boss spawns are never touched here.
type PatrolJob struct {
	store   *world.Store
	enemies *data.EnemyTable
	cfg     *config.Config
	log     *zap.Logger
}

func NewPatrolJob(store *world.Store, enemies *data.EnemyTable, cfg *config.Config, log *zap.Logger) *PatrolJob {
	return &PatrolJob{store: store, enemies: enemies, cfg: cfg, log: log}
}

func (j *PatrolJob) Name() string            { return "patrol-ai" }
func (j *PatrolJob) Interval() time.Duration { return j.cfg.Sim.PatrolInterval }

func (j *PatrolJob) Run(ctx context.Context) error {
	return j.store.Exec(j.Name(), j.tick)
}

func (j *PatrolJob) tick(tx *world.Tx) error {
	dt := j.cfg.Sim.PatrolInterval.Seconds()
	players := tx.Players()
	for _, s := range tx.Spawns() {
		if s.Kind != world.KindRegular || s.State == world.StateDead {
			continue
		}
		j.tickSpawn(tx, s, players, dt)
	}
	return nil
}

func (j *PatrolJob) tickSpawn(tx *world.Tx, s world.Spawn, players []world.Player, dt float64) {
	// Damaged recovery wins over everything else: one transition per tick,
	// and a staggered hostile does nothing until its window elapses.
	if s.State == world.StateDamaged {
		if tx.Now().Sub(s.UpdatedAt) >= j.cfg.Sim.RecoveryWindow {
			s.State = world.StateIdle
			tx.PutSpawn(s)
		}
		return
	}
	if s.State != world.StateIdle && s.State != world.StateWalk {
		return
	}

	tmpl := j.enemies.Get(s.Type)
	if tmpl == nil {
		j.log.Warn("patrol skipped, enemy template missing",
			zap.Uint64("spawn", s.ID),
			zap.String("type", s.Type))
		return
	}
	route, ok := tx.Route(s.RouteID)
	if !ok {
		// A route re-seed can orphan a spawn; it stands down until cleanup.
		return
	}

	next := s

	// Never trust a remembered target: it may have died, logged off, or
	// outrun the leash since the tick that picked it.
	if next.AggroTarget != 0 {
		p, ok := tx.Player(next.AggroTarget)
		if !ok || !p.Targetable() || math.Abs(p.X-next.X) > j.cfg.Sim.LeashRange {
			next.AggroTarget = 0
		}
	}
	if next.AggroTarget == 0 && tmpl.Behavior == data.BehaviorAggressive {
		if p, ok := selectTarget(FirstMatchTargeting, players, next.X, j.cfg.Sim.AggroRange); ok {
			next.AggroTarget = p.ID
		}
	}

	if next.AggroTarget != 0 {
		if target, ok := tx.Player(next.AggroTarget); ok {
			next = chaseStep(next, route, target, tmpl.MoveSpeed*dt)
		}
	} else if tmpl.Behavior == data.BehaviorPatrol {
		next = paceStep(next, route, tmpl.MoveSpeed*dt)
	}

	if next.X != s.X {
		next.State = world.StateWalk
	} else {
		next.State = world.StateIdle
	}
	if next.X != s.X || next.Facing != s.Facing ||
		next.AggroTarget != s.AggroTarget || next.MovingRight != s.MovingRight ||
		next.State != s.State {
		tx.PutSpawn(next)
	}
}

// chaseStep moves toward the target's x, clamped to the route. When the
// clamp eats the whole step (target beyond a route wall), the hostile backs
// off instead of grinding against the bound forever.
func chaseStep(s world.Spawn, route world.Route, target world.Player, step float64) world.Spawn {
	dx := target.X - s.X
	if dx == 0 {
		return s
	}
	s.Facing = world.FacingToward(dx)
	if math.Abs(dx) < step {
		step = math.Abs(dx)
	}
	dir := 1.0
	if dx < 0 {
		dir = -1
	}
	moved := route.ClampX(s.X + dir*step)
	if math.Abs(target.X-moved) >= math.Abs(dx) {
		moved = route.ClampX(s.X - dir*step)
	}
	s.X = moved
	return s
}

// paceStep bounces between the route's horizontal bounds, flipping the
// direction flag on contact.
func paceStep(s world.Spawn, route world.Route, step float64) world.Spawn {
	if s.MovingRight {
		s.X += step
		if s.X >= route.MaxX {
			s.X = route.MaxX
			s.MovingRight = false
		}
	} else {
		s.X -= step
		if s.X <= route.MinX {
			s.X = route.MinX
			s.MovingRight = true
		}
	}
	if s.MovingRight {
		s.Facing = world.FacingRight
	} else {
		s.Facing = world.FacingLeft
	}
	return s
}
