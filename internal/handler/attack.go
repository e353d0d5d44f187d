package handler

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/scripting"
	"github.com/emberwake/server/internal/world"
)

// AttackRequest targets one spawn with a melee swing. PlayerID comes from the
// connection.
type AttackRequest struct {
	PlayerID int64  `json:"-"`
	SpawnID  uint64 `json:"spawn_id"`
}

// HandleAttack applies player damage to a spawn. Regular hostiles are staggered
// into the damaged state; bosses take the damage but keep acting. A lethal hit
// flips the spawn dead, awards the template's experience to the attacker, and
// announces boss kills.
func HandleAttack(deps *Deps, req AttackRequest) error {
	return deps.Store.Exec("attack", func(tx *world.Tx) error {
		p, ok := tx.Player(req.PlayerID)
		if !ok {
			return ErrUnknownPlayer
		}
		if !p.Online {
			return ErrPlayerOffline
		}
		if p.State == world.StateDead {
			return ErrPlayerDead
		}
		s, ok := tx.Spawn(req.SpawnID)
		if !ok {
			return ErrUnknownSpawn
		}
		if !s.Alive() {
			return ErrSpawnDead
		}

		sim := deps.Config.Sim
		dx := s.X - p.X
		if math.Abs(dx) > sim.PlayerAttackRange || math.Abs(s.Y-p.Y) > sim.VerticalTolerance {
			return ErrOutOfRange
		}

		level, exp, boss := templateFacts(deps, s)
		dmg := scripting.DefaultPlayerDamage(int(p.Level))
		if deps.Scripting != nil {
			dmg = deps.Scripting.CalcPlayerAttack(scripting.PlayerAttackContext{
				PlayerLevel: int(p.Level),
				PlayerJob:   int(p.JobID),
				TargetLevel: level,
				TargetHP:    int(s.HP),
				TargetMaxHP: int(s.MaxHP),
				TargetBoss:  boss,
			})
		}

		s.HP -= int32(dmg)
		if s.HP <= 0 {
			s.HP = 0
			s.State = world.StateDead
			s.AggroTarget = 0
		} else if s.Kind == world.KindRegular {
			// Stagger. Bosses shrug hits off and keep their current state.
			s.State = world.StateDamaged
		}
		tx.PutSpawn(s)

		tx.AppendEnemyDamage(world.EnemyDamageEvent{
			SpawnID:  s.ID,
			PlayerID: p.ID,
			Amount:   int32(dmg),
			At:       tx.Now(),
		})

		if dx != 0 {
			p.Facing = world.FacingToward(dx)
		}
		p.InCombat = true
		if s.HP == 0 {
			p.Exp += exp
			deps.Log.Info("spawn killed",
				zap.Uint64("spawn", s.ID),
				zap.String("type", s.Type),
				zap.Int64("player", p.ID),
				zap.Int64("exp", exp))
			if boss {
				tx.AppendBroadcast(world.Broadcast{
					Kind: world.BroadcastBoss,
					Text: fmt.Sprintf("%s has been slain by %s!", s.Type, p.Name),
					At:   tx.Now(),
				})
			}
		}
		p.Dirty = true
		tx.PutPlayer(p)
		return nil
	})
}

// templateFacts pulls level/exp from the matching reference table. Unknown
// types still take damage; they just award nothing.
func templateFacts(deps *Deps, s world.Spawn) (level int, exp int64, boss bool) {
	if s.Kind == world.KindBoss {
		if t := deps.Bosses.Get(s.Type); t != nil {
			return int(t.Level), t.Exp, true
		}
		return int(s.Level), 0, true
	}
	if t := deps.Enemies.Get(s.Type); t != nil {
		return int(t.Level), t.Exp, false
	}
	return int(s.Level), 0, false
}
