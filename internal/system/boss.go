package system

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/scripting"
	"github.com/emberwake/server/internal/world"
)

// approachFactor positions a closing boss just inside its chosen attack's
// reach, so a target drifting on the range edge cannot flicker the boss
// between walking and swinging.
const approachFactor = 0.9

// BossJob drives every boss through its tick sequence: despawn timeout,
// attack recovery keyed to the attack's own animation, nearest-target
// acquisition, approach positioning, and attack dispatch. The attack slot
// itself is chosen by the Lua policy; Go enforces cooldowns and range.
type BossJob struct {
	store   *world.Store
	enemies *data.EnemyTable
	bosses  *data.BossTable
	scripts *scripting.Engine
	cfg     *config.Config
	rng     *rand.Rand
	log     *zap.Logger
}

func NewBossJob(store *world.Store, enemies *data.EnemyTable, bosses *data.BossTable,
	scripts *scripting.Engine, cfg *config.Config, rng *rand.Rand, log *zap.Logger) *BossJob {
	return &BossJob{
		store:   store,
		enemies: enemies,
		bosses:  bosses,
		scripts: scripts,
		cfg:     cfg,
		rng:     rng,
		log:     log,
	}
}

func (j *BossJob) Name() string            { return "boss-ai" }
func (j *BossJob) Interval() time.Duration { return j.cfg.Sim.BossInterval }

func (j *BossJob) Run(ctx context.Context) error {
	return j.store.Exec(j.Name(), j.tick)
}

func (j *BossJob) tick(tx *world.Tx) error {
	dt := j.cfg.Sim.BossInterval.Seconds()
	players := tx.Players()
	for _, s := range tx.Spawns() {
		if s.Kind != world.KindBoss {
			continue
		}
		j.tickBoss(tx, s, players, dt)
	}
	return nil
}

func (j *BossJob) tickBoss(tx *world.Tx, s world.Spawn, players []world.Player, dt float64) {
	now := tx.Now()

	// Lifetime ceiling: an unkilled boss eventually leaves, taking its
	// cooldown records and damage events with it.
	if now.Sub(s.SpawnedAt) >= j.cfg.Sim.DespawnTimeout {
		tx.DeleteSpawnCascade(s.ID)
		j.log.Info("boss despawned",
			zap.Uint64("spawn", s.ID),
			zap.String("type", s.Type),
			zap.Duration("lifetime", now.Sub(s.SpawnedAt)))
		return
	}

	tmpl := j.bosses.Get(s.Type)

	// Recovery is keyed to the used attack's own animation, never a global
	// timer. The boss stays locked in the attack state until it elapses.
	if slot := s.State.AttackSlot(); slot > 0 {
		st, ok := tx.AttackState(s.ID, slot)
		if !ok {
			// Mid-attack with no cooldown record. Repair rather than leave
			// the boss stuck in an animation that never ends.
			j.log.Warn("boss stuck in attack state without cooldown record",
				zap.Uint64("spawn", s.ID),
				zap.Int("slot", slot))
			s.State = world.StateIdle
			s = tx.PutSpawn(s)
		} else {
			anim := j.cfg.Sim.DefaultAnimation
			if tmpl != nil {
				if atk := tmpl.Attack(slot); atk != nil {
					anim = atk.Animation()
				}
			}
			if now.Sub(st.LastUsed) < anim {
				return
			}
			s.State = world.StateIdle
			s = tx.PutSpawn(s)
		}
	}

	if s.State == world.StateDead {
		return
	}
	if tmpl == nil {
		j.log.Warn("boss template missing",
			zap.Uint64("spawn", s.ID),
			zap.String("type", s.Type))
		return
	}

	// Bosses take the nearest player, not the first-in-scan like patrols.
	target, ok := selectTarget(NearestTargeting, players, s.X, tmpl.AggroRange)
	if !ok {
		if s.State != world.StateIdle || s.AggroTarget != 0 {
			s.State = world.StateIdle
			s.AggroTarget = 0
			tx.PutSpawn(s)
		}
		return
	}

	next := s
	next.AggroTarget = target.ID
	dx := target.X - next.X
	if dx != 0 {
		next.Facing = world.FacingToward(dx)
	}
	dist := math.Abs(dx)

	atk := j.pickAttack(tx, next, tmpl, dist)
	reach := 0.0
	switch {
	case atk != nil:
		reach = atk.Range
	case len(tmpl.Attacks) > 0:
		// Everything on cooldown: hold position against the first slot so
		// the boss is already in reach once something clears.
		reach = tmpl.Attacks[0].Range
	}
	commit := approachFactor * reach

	if dist > commit {
		step := tmpl.MoveSpeed * dt
		if step > dist-commit {
			step = dist - commit
		}
		if dx < 0 {
			step = -step
		}
		next.X = clampWorldX(next.X+step, j.cfg.World.Width)
		next.State = world.StateWalk
		putSpawnIfChanged(tx, s, next)
		return
	}

	if atk != nil {
		j.executeAttack(tx, next, atk)
		return
	}
	next.State = world.StateIdle
	putSpawnIfChanged(tx, s, next)
}

// pickAttack chooses the slot the boss commits to this tick. The Lua policy
// sees every slot with its readiness and reach; its choice is honored only
// when that slot is actually off cooldown. With no script answer the lowest
// ready slot wins. Returns nil when nothing is ready.
func (j *BossJob) pickAttack(tx *world.Tx, s world.Spawn, tmpl *data.BossTemplate, dist float64) *data.AttackTemplate {
	now := tx.Now()
	ready := make(map[int]bool, len(tmpl.Attacks))
	opts := make([]scripting.AttackOption, 0, len(tmpl.Attacks))
	for i := range tmpl.Attacks {
		atk := &tmpl.Attacks[i]
		rdy := true
		if st, ok := tx.AttackState(s.ID, atk.Slot); ok {
			rdy = now.Sub(st.LastUsed) >= atk.Cooldown()
		}
		ready[atk.Slot] = rdy
		opts = append(opts, scripting.AttackOption{
			Slot:    atk.Slot,
			Kind:    string(atk.Kind),
			Damage:  int(atk.Damage),
			Range:   atk.Range,
			Ready:   rdy,
			InRange: dist <= approachFactor*atk.Range,
		})
	}

	if j.scripts != nil {
		hpPct := 1.0
		if s.MaxHP > 0 {
			hpPct = float64(s.HP) / float64(s.MaxHP)
		}
		choice := j.scripts.PickBossAttack(scripting.BossAttackContext{
			BossType:   s.Type,
			HPPct:      hpPct,
			TargetDist: dist,
			Options:    opts,
		})
		if choice > 0 && ready[choice] {
			if atk := tmpl.Attack(choice); atk != nil {
				return atk
			}
		}
	}
	for i := range tmpl.Attacks { // slots sorted ascending at load
		if ready[tmpl.Attacks[i].Slot] {
			return &tmpl.Attacks[i]
		}
	}
	return nil
}

func putSpawnIfChanged(tx *world.Tx, old, next world.Spawn) {
	if next.X != old.X || next.Facing != old.Facing ||
		next.AggroTarget != old.AggroTarget || next.State != old.State {
		tx.PutSpawn(next)
	}
}

func clampWorldX(x, width float64) float64 {
	if x < 0 {
		return 0
	}
	if x > width {
		return width
	}
	return x
}
