package handler

import (
	"github.com/emberwake/server/internal/world"
)

// JobChangeRequest switches a player's job. PlayerID comes from the connection.
type JobChangeRequest struct {
	PlayerID int64 `json:"-"`
	JobID    int16 `json:"job_id"`
}

// HandleJobChange validates the job against the catalog and applies it.
// Changing jobs drops the in-combat flag; lingering cooldown presentation is
// the client's problem.
func HandleJobChange(deps *Deps, req JobChangeRequest) error {
	return deps.Store.Exec("job-change", func(tx *world.Tx) error {
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
		if deps.Jobs.Get(req.JobID) == nil {
			return ErrUnknownJob
		}
		p.JobID = req.JobID
		p.InCombat = false
		p.Dirty = true
		tx.PutPlayer(p)
		return nil
	})
}
