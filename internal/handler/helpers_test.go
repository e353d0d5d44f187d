package handler

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/config"
	"github.com/emberwake/server/internal/core/event"
	"github.com/emberwake/server/internal/data"
	"github.com/emberwake/server/internal/world"
)

const handlerEnemiesYAML = `
enemies:
  - name: pacer
    level: 2
    exp: 12
    hp: 20
    move_speed: 100
    damage: 3
    behavior: patrol
`

const handlerBossesYAML = `
bosses:
  - name: lone_fang
    level: 8
    exp: 300
    hp: 400
    move_speed: 100
    aggro_range: 300
    attacks:
      - slot: 1
        kind: directional
        damage: 5
        cooldown_ms: 1000
        range: 40
        hits: 1
        knockback: 0
        animation_ms: 500
`

const handlerJobsYAML = `
jobs:
  - id: 0
    label: adventurer
  - id: 2
    label: pyromancer
`

// testDeps wires handler dependencies over a store with a steppable clock.
// Tests advance the clock through the returned pointer.
func testDeps(t *testing.T) (*Deps, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	store := world.NewStore(event.NewBus(), zap.NewNop())
	store.Clock = func() time.Time { return now }

	enemies, err := data.LoadEnemyTable(writeFixture(t, "enemies.yaml", handlerEnemiesYAML))
	if err != nil {
		t.Fatalf("load enemies: %v", err)
	}
	bosses, err := data.LoadBossTable(writeFixture(t, "bosses.yaml", handlerBossesYAML))
	if err != nil {
		t.Fatalf("load bosses: %v", err)
	}
	jobs, err := data.LoadJobTable(writeFixture(t, "jobs.yaml", handlerJobsYAML))
	if err != nil {
		t.Fatalf("load jobs: %v", err)
	}

	deps := &Deps{
		Store:   store,
		Config:  handlerConfig(),
		Log:     zap.NewNop(),
		Enemies: enemies,
		Bosses:  bosses,
		Jobs:    jobs,
		Rng:     rand.New(rand.NewSource(1)),
	}
	return deps, &now
}

func handlerConfig() *config.Config {
	return &config.Config{
		World: config.WorldConfig{
			Width: 4800, Height: 1200, MoveTolerance: 160,
			StartX: 420, StartY: 960, StartHP: 100, StartMP: 40,
		},
		Sim: config.SimConfig{
			VerticalTolerance: 80,
			PlayerAttackRange: 90,
		},
	}
}

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func seedPlayer(t *testing.T, s *world.Store, p world.Player) world.Player {
	t.Helper()
	if err := s.Exec("seed-player", func(tx *world.Tx) error {
		p = tx.PutPlayer(p)
		return nil
	}); err != nil {
		t.Fatalf("seed player: %v", err)
	}
	return p
}

func seedSpawn(t *testing.T, s *world.Store, sp world.Spawn) world.Spawn {
	t.Helper()
	if err := s.Exec("seed-spawn", func(tx *world.Tx) error {
		sp = tx.CreateSpawn(sp)
		return nil
	}); err != nil {
		t.Fatalf("seed spawn: %v", err)
	}
	return sp
}

func seedRoute(t *testing.T, s *world.Store, r world.Route) world.Route {
	t.Helper()
	if err := s.Exec("seed-route", func(tx *world.Tx) error {
		r = tx.PutRoute(r)
		return nil
	}); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return r
}

func getPlayer(t *testing.T, s *world.Store, id int64) world.Player {
	t.Helper()
	var out world.Player
	found := false
	_ = s.Exec("get-player", func(tx *world.Tx) error {
		out, found = tx.Player(id)
		return nil
	})
	if !found {
		t.Fatalf("player %d missing", id)
	}
	return out
}

func getSpawn(t *testing.T, s *world.Store, id uint64) world.Spawn {
	t.Helper()
	var out world.Spawn
	found := false
	_ = s.Exec("get-spawn", func(tx *world.Tx) error {
		out, found = tx.Spawn(id)
		return nil
	})
	if !found {
		t.Fatalf("spawn %d missing", id)
	}
	return out
}

func listBroadcasts(s *world.Store) []world.Broadcast {
	var out []world.Broadcast
	_ = s.Exec("list-broadcasts", func(tx *world.Tx) error {
		out = tx.Broadcasts()
		return nil
	})
	return out
}

func listEnemyDamage(s *world.Store) []world.EnemyDamageEvent {
	var out []world.EnemyDamageEvent
	_ = s.Exec("list-enemy-damage", func(tx *world.Tx) error {
		out = tx.EnemyDamageEvents()
		return nil
	})
	return out
}
