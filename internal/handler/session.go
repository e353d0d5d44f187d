package handler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/world"
)

// ConnectRequest is the first intent a connection must send. PlayerID zero
// means "create a fresh character", in which case Name is required.
type ConnectRequest struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
}

// HandleConnect upserts the player row and flips it online. Returning players
// keep their persisted position and progression; new players start at the
// configured spawn point.
func HandleConnect(deps *Deps, req ConnectRequest) (world.Player, error) {
	var out world.Player
	err := deps.Store.Exec("connect", func(tx *world.Tx) error {
		if req.PlayerID != 0 {
			p, ok := tx.Player(req.PlayerID)
			if !ok {
				return ErrUnknownPlayer
			}
			p.Online = true
			p.InCombat = false
			p.State = world.StateIdle
			if name := strings.TrimSpace(req.Name); name != "" {
				p.Name = name
			}
			p.Dirty = true
			tx.PutPlayer(p)
			out = p
			return nil
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			return ErrNameRequired
		}
		w := deps.Config.World
		p := world.Player{
			ID:     nextPlayerID(tx),
			Name:   name,
			X:      w.StartX,
			Y:      w.StartY,
			HP:     w.StartHP,
			MaxHP:  w.StartHP,
			MP:     w.StartMP,
			MaxMP:  w.StartMP,
			Level:  1,
			State:  world.StateIdle,
			Facing: world.FacingRight,
			Online: true,
			Dirty:  true,
		}
		tx.PutPlayer(p)
		out = p
		return nil
	})
	if err != nil {
		return world.Player{}, err
	}
	deps.Log.Info("player connected",
		zap.Int64("player", out.ID),
		zap.String("name", out.Name))
	return out, nil
}

// HandleDisconnect flips the player offline. Hostiles aggroed on the player
// drop their target on the next AI tick.
func HandleDisconnect(deps *Deps, playerID int64) error {
	err := deps.Store.Exec("disconnect", func(tx *world.Tx) error {
		p, ok := tx.Player(playerID)
		if !ok {
			return ErrUnknownPlayer
		}
		p.Online = false
		p.InCombat = false
		p.Dirty = true
		tx.PutPlayer(p)
		return nil
	})
	if err != nil {
		return err
	}
	deps.Log.Info("player disconnected", zap.Int64("player", playerID))
	return nil
}

// nextPlayerID allocates the next character ID. Player IDs are small and the
// scan runs inside the store lock, so a max+1 walk is fine here.
func nextPlayerID(tx *world.Tx) int64 {
	var max int64
	for _, p := range tx.Players() {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
