package handler

import (
	"github.com/emberwake/server/internal/world"
)

// TeleportRequest is an explicit blink to an absolute point, exempt from the
// move displacement ceiling. PlayerID comes from the connection.
type TeleportRequest struct {
	PlayerID int64   `json:"-"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// HandleTeleport validates the destination against map bounds and applies it.
// Out-of-bounds destinations are rejected outright with no partial effect.
func HandleTeleport(deps *Deps, req TeleportRequest) error {
	return deps.Store.Exec("teleport", func(tx *world.Tx) error {
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
		p.X = req.X
		p.Y = req.Y
		p.State = world.StateIdle
		p.Dirty = true
		tx.PutPlayer(p)
		return nil
	})
}
