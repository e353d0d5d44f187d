package system

import (
	"math"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/handler"
	"github.com/emberwake/server/internal/world"
)

// executeAttack runs one committed attack slot: damage kinds hit players in
// the slot's shape, summon kinds top up nearby routes. The cooldown record
// is stamped whether or not anything was hit, and the boss enters the slot's
// animation state until recovery releases it.
func (j *BossJob) executeAttack(tx *world.Tx, s world.Spawn, atk *data.AttackTemplate) {
	switch atk.Kind {
	case data.AttackSummon:
		j.resolveSummon(tx, s, atk)
	default:
		j.resolveDamage(tx, s, atk)
	}
	tx.PutAttackState(world.AttackState{SpawnID: s.ID, Slot: atk.Slot, LastUsed: tx.Now()})
	s.State = world.AttackStateFor(atk.Slot)
	tx.PutSpawn(s)
}

// resolveDamage applies one damage attack to every player inside its shape.
// Area attacks ignore facing; directional attacks hit only in front of the
// boss. The vertical band keeps players on other platforms out of the swing.
func (j *BossJob) resolveDamage(tx *world.Tx, s world.Spawn, atk *data.AttackTemplate) {
	for _, p := range tx.Players() {
		if !p.Targetable() || p.State == world.StateDamaged {
			continue // offline, dead, or inside invulnerability frames
		}
		if math.Abs(p.Y-s.Y) > j.cfg.Sim.VerticalTolerance {
			continue
		}
		dx := p.X - s.X
		if math.Abs(dx) > atk.Range {
			continue
		}
		if atk.Kind == data.AttackDirectional && dx*s.Facing.Sign() < 0 {
			continue // behind the boss
		}
		j.applyHits(tx, s, p.ID, atk)
	}
}

// applyHits lands the attack's hit sequence on one player. Every hit
// re-reads the row, so a multi-hit sequence that turns lethal stops early
// instead of striking a corpse.
func (j *BossJob) applyHits(tx *world.Tx, s world.Spawn, playerID int64, atk *data.AttackTemplate) {
	for i := 0; i < atk.Hits; i++ {
		p, ok := tx.Player(playerID)
		if !ok || !p.Targetable() {
			return
		}
		p.HP -= atk.Damage
		if p.HP <= 0 {
			p.HP = 0
			p.State = world.StateDead
			p.InCombat = false
		} else {
			// Hit-stun doubles as invulnerability frames: the next attack
			// skips this player until a move intent clears the state.
			p.State = world.StateDamaged
			p.InCombat = true
		}
		// Knockback pushes away from the boss along x, clamped to the map.
		dir := 1.0
		if p.X < s.X {
			dir = -1
		}
		p.X = clampWorldX(p.X+dir*atk.Knockback, j.cfg.World.Width)
		p.Dirty = true
		p = tx.PutPlayer(p)
		tx.AppendPlayerDamage(world.PlayerDamageEvent{
			PlayerID: p.ID,
			SpawnID:  s.ID,
			Amount:   atk.Damage,
		})
		if p.State == world.StateDead {
			j.log.Info("player slain",
				zap.Int64("player", p.ID),
				zap.Uint64("spawn", s.ID),
				zap.String("boss", s.Type))
			return
		}
	}
}

// resolveSummon tops up every regular route whose center the attack reaches.
// Summon fills never move a route's spawn clock, so the normal cadence is
// unaffected; boss routes are excluded so a boss cannot chain-summon bosses.
func (j *BossJob) resolveSummon(tx *world.Tx, s world.Spawn, atk *data.AttackTemplate) {
	for _, route := range tx.Routes() {
		if route.Kind != world.KindRegular {
			continue
		}
		if math.Hypot(route.CenterX()-s.X, route.CenterY()-s.Y) > atk.Range {
			continue
		}
		created, err := handler.FillRoute(tx, j.rng, route, j.enemies, j.bosses)
		if err != nil {
			j.log.Warn("summon fill skipped",
				zap.Int32("route", route.ID),
				zap.Error(err))
			continue
		}
		if created > 0 {
			j.log.Debug("summon reinforced route",
				zap.Uint64("spawn", s.ID),
				zap.Int32("route", route.ID),
				zap.Int("created", created))
		}
	}
}
