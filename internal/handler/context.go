package handler

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/scripting"
	"github.com/emberwake/server/internal/world"
)

// Deps holds shared dependencies injected into all intent handlers.
//
// Rng is shared with the simulation jobs; every use happens inside a store
// transaction, which serializes access.
type Deps struct {
	Store     *world.Store
	Config    *config.Config
	Log       *zap.Logger
	Enemies   *data.EnemyTable
	Bosses    *data.BossTable
	Jobs      *data.JobTable
	Routes    []data.RouteEntry // seed set, kept for admin reseed
	Scripting *scripting.Engine
	Rng       *rand.Rand
}

func (d *Deps) inWorld(x, y float64) bool {
	w := d.Config.World
	return x >= 0 && x <= w.Width && y >= 0 && y <= w.Height
}
