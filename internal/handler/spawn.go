package handler

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/world"
)

// FillRoute creates spawns until the route reaches its population cap and
// returns how many it created. Dead spawns still waiting on corpse cleanup
// do not count toward the cap. The route row is not written back here;
// only interval fills move LastSpawnAt, and that is the caller's call.
func FillRoute(tx *world.Tx, rng *rand.Rand, route world.Route, enemies *data.EnemyTable, bosses *data.BossTable) (int, error) {
	deficit := route.MaxEnemies - tx.LiveSpawnCount(route.ID)
	if deficit <= 0 {
		return 0, nil
	}

	var hp int32
	var level int16
	switch route.Kind {
	case world.KindBoss:
		if bosses == nil {
			return 0, fmt.Errorf("route %d: no boss table", route.ID)
		}
		tmpl := bosses.Get(route.Type)
		if tmpl == nil {
			return 0, fmt.Errorf("route %d: boss template %q missing", route.ID, route.Type)
		}
		hp, level = tmpl.HP, tmpl.Level
	default:
		if enemies == nil {
			return 0, fmt.Errorf("route %d: no enemy table", route.ID)
		}
		tmpl := enemies.Get(route.Type)
		if tmpl == nil {
			return 0, fmt.Errorf("route %d: enemy template %q missing", route.ID, route.Type)
		}
		hp, level = tmpl.HP, tmpl.Level
	}

	for i := 0; i < deficit; i++ {
		tx.CreateSpawn(world.Spawn{
			RouteID:     route.ID,
			Type:        route.Type,
			Kind:        route.Kind,
			X:           route.MinX + rng.Float64()*(route.MaxX-route.MinX),
			Y:           route.MinY + rng.Float64()*(route.MaxY-route.MinY),
			State:       world.StateIdle,
			Facing:      world.FacingRight,
			HP:          hp,
			MaxHP:       hp,
			Level:       level,
			MovingRight: true,
		})
	}
	return deficit, nil
}

// RouteFromEntry converts a loaded route definition into a live route row.
// LastSpawnAt starts zeroed so the first spawn check fills immediately.
func RouteFromEntry(e data.RouteEntry) world.Route {
	kind := world.KindRegular
	if e.Kind == string(world.KindBoss) {
		kind = world.KindBoss
	}
	return world.Route{
		ID:         e.ID,
		Kind:       kind,
		Type:       e.Type,
		MinX:       e.MinX,
		MaxX:       e.MaxX,
		MinY:       e.MinY,
		MaxY:       e.MaxY,
		MaxEnemies: e.MaxEnemies,
		SpawnEvery: time.Duration(e.Interval) * time.Second,
	}
}
