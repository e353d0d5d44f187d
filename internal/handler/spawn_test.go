package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/world"
)

func TestFillRouteTopsUpToCap(t *testing.T) {
	deps, _ := testDeps(t)
	route := seedRoute(t, deps.Store, world.Route{
		ID: 1, Kind: world.KindRegular, Type: "pacer",
		MinX: 300, MaxX: 340, MinY: 940, MaxY: 980, MaxEnemies: 3,
	})
	seedSpawn(t, deps.Store, world.Spawn{
		RouteID: 1, Type: "pacer", Kind: world.KindRegular,
		X: 320, Y: 960, State: world.StateWalk, HP: 20, MaxHP: 20,
	})

	var created int
	err := deps.Store.Exec("fill", func(tx *world.Tx) error {
		n, err := FillRoute(tx, deps.Rng, route, deps.Enemies, deps.Bosses)
		created = n
		return err
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2 to reach the cap of 3", created)
	}

	spawns := deps.Store.Snapshot().Spawns
	if len(spawns) != 3 {
		t.Fatalf("spawns = %d, want 3", len(spawns))
	}
	for _, sp := range spawns {
		if sp.X < 300 || sp.X > 340 || sp.Y < 940 || sp.Y > 980 {
			t.Fatalf("spawn outside route rect: (%v, %v)", sp.X, sp.Y)
		}
		if sp.HP != 20 || sp.Level != 2 {
			t.Fatalf("spawn stats = hp %d lvl %d, want template 20/2", sp.HP, sp.Level)
		}
	}
}

func TestFillRouteIgnoresCorpses(t *testing.T) {
	deps, _ := testDeps(t)
	route := seedRoute(t, deps.Store, world.Route{
		ID: 1, Kind: world.KindRegular, Type: "pacer",
		MinX: 300, MaxX: 340, MinY: 940, MaxY: 980, MaxEnemies: 2,
	})
	seedSpawn(t, deps.Store, world.Spawn{
		RouteID: 1, Type: "pacer", Kind: world.KindRegular,
		X: 310, Y: 960, State: world.StateDead,
	})
	seedSpawn(t, deps.Store, world.Spawn{
		RouteID: 1, Type: "pacer", Kind: world.KindRegular,
		X: 330, Y: 960, State: world.StateWalk, HP: 20, MaxHP: 20,
	})

	var created int
	_ = deps.Store.Exec("fill", func(tx *world.Tx) error {
		created, _ = FillRoute(tx, deps.Rng, route, deps.Enemies, deps.Bosses)
		return nil
	})

	// The corpse does not hold a population slot.
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
}

func TestFillRouteUnknownTemplate(t *testing.T) {
	deps, _ := testDeps(t)
	route := seedRoute(t, deps.Store, world.Route{
		ID: 1, Kind: world.KindRegular, Type: "drifting_mote",
		MinX: 300, MaxX: 340, MinY: 940, MaxY: 980, MaxEnemies: 2,
	})

	err := deps.Store.Exec("fill", func(tx *world.Tx) error {
		_, err := FillRoute(tx, deps.Rng, route, deps.Enemies, deps.Bosses)
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "drifting_mote") {
		t.Fatalf("err = %v, want the missing template named", err)
	}
	if got := len(deps.Store.Snapshot().Spawns); got != 0 {
		t.Fatalf("spawns = %d, want none on a failed fill", got)
	}
}

func TestRouteFromEntryConvertsSecondsAndKind(t *testing.T) {
	boss := RouteFromEntry(data.RouteEntry{
		ID: 6, Kind: "boss", Type: "lone_fang",
		MinX: 2950, MaxX: 3050, MinY: 940, MaxY: 980,
		MaxEnemies: 1, Interval: 300,
	})
	if boss.Kind != world.KindBoss || boss.SpawnEvery != 300*time.Second {
		t.Fatalf("boss route = kind %s every %v, want boss/5m", boss.Kind, boss.SpawnEvery)
	}
	if !boss.LastSpawnAt.IsZero() {
		t.Fatalf("fresh route carries a spawn clock: %v", boss.LastSpawnAt)
	}

	// Anything but "boss" is a regular route.
	plain := RouteFromEntry(data.RouteEntry{ID: 1, Kind: "patrol-strip", Type: "pacer", Interval: 30})
	if plain.Kind != world.KindRegular || plain.SpawnEvery != 30*time.Second {
		t.Fatalf("plain route = kind %s every %v, want regular/30s", plain.Kind, plain.SpawnEvery)
	}
}
