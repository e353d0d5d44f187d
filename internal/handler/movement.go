package handler

import (
	"math"

	"github.com/emberwake/server/internal/world"
)

// MoveRequest carries a client position update. PlayerID is filled from the
// authenticated connection, never from the wire.
type MoveRequest struct {
	PlayerID int64   `json:"-"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Facing   string  `json:"facing"`
	State    string  `json:"state"`
}

// HandleMove validates a position update against map bounds and the
// per-update displacement ceiling, then applies it. Facing and the idle/walk
// state piggyback on the same intent. A rejected move leaves the player row
// untouched; the client is expected to resync from the next snapshot.
func HandleMove(deps *Deps, req MoveRequest) error {
	return deps.Store.Exec("move", func(tx *world.Tx) error {
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
		if !deps.inWorld(req.X, req.Y) {
			return ErrOutOfBounds
		}
		dx := req.X - p.X
		dy := req.Y - p.Y
		if math.Hypot(dx, dy) > deps.Config.World.MoveTolerance {
			return ErrMoveTooFar
		}

		state := p.State
		switch req.State {
		case "":
			state = world.StateWalk
		case string(world.StateIdle):
			state = world.StateIdle
		case string(world.StateWalk):
			state = world.StateWalk
		default:
			// Damaged, dead and attack states are server-assigned.
			return ErrInvalidState
		}

		facing := p.Facing
		switch req.Facing {
		case "":
			if dx != 0 {
				facing = world.FacingToward(dx)
			}
		case string(world.FacingLeft):
			facing = world.FacingLeft
		case string(world.FacingRight):
			facing = world.FacingRight
		default:
			return ErrInvalidState
		}

		p.X = req.X
		p.Y = req.Y
		p.State = state
		p.Facing = facing
		p.Dirty = true
		tx.PutPlayer(p)
		return nil
	})
}
