package system

import (
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

// Enemy templates move 100 units/s so a 100ms tick steps exactly 10 units.
const testEnemiesYAML = `
enemies:
  - name: pacer
    level: 2
    exp: 12
    hp: 20
    move_speed: 100
    damage: 3
    behavior: patrol
  - name: chaser
    level: 4
    exp: 30
    hp: 35
    move_speed: 100
    damage: 6
    behavior: aggressive
`

const testBossesYAML = `
bosses:
  - name: cinder_king
    level: 10
    exp: 500
    hp: 800
    move_speed: 100
    aggro_range: 300
    attacks:
      - slot: 1
        kind: directional
        damage: 5
        cooldown_ms: 1000
        range: 40
        hits: 3
        knockback: 10
        animation_ms: 500
      - slot: 2
        kind: area
        damage: 7
        cooldown_ms: 5000
        range: 200
        hits: 1
        knockback: 0
        animation_ms: 800
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
  - name: hollow_caller
    level: 9
    exp: 400
    hp: 500
    move_speed: 100
    aggro_range: 300
    attacks:
      - slot: 1
        kind: summon
        cooldown_ms: 20000
        range: 700
        animation_ms: 1000
`

const testJobsYAML = `
jobs:
  - id: 0
    label: adventurer
  - id: 2
    label: pyromancer
`

// simStore builds a store with a steppable clock. Tests advance the clock
// through the returned pointer before each job run.
func simStore(t *testing.T) (*world.Store, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s := world.NewStore(event.NewBus(), zap.NewNop())
	s.Clock = func() time.Time { return now }
	return s, &now
}

func simConfig() *config.Config {
	return &config.Config{
		World: config.WorldConfig{
			Width: 4800, Height: 1200, MoveTolerance: 160,
			StartX: 420, StartY: 960, StartHP: 100, StartMP: 40,
		},
		Sim: config.SimConfig{
			PatrolInterval:    100 * time.Millisecond,
			BossInterval:      100 * time.Millisecond,
			SpawnInterval:     10 * time.Second,
			CleanupInterval:   time.Second,
			BroadcastInterval: 15 * time.Second,
			AutosaveInterval:  5 * time.Minute,

			RecoveryWindow:   2 * time.Second,
			DeadGrace:        5 * time.Second,
			DespawnTimeout:   10 * time.Minute,
			DefaultAnimation: time.Second,
			DamageEventTTL:   10 * time.Second,
			BroadcastTTL:     30 * time.Second,

			AggroRange:        250,
			LeashRange:        420,
			VerticalTolerance: 80,
			PlayerAttackRange: 90,
		},
		Leaderboard: config.LeaderboardConfig{Interval: time.Minute, Size: 25},
	}
}

func loadTestEnemies(t *testing.T) *data.EnemyTable {
	t.Helper()
	table, err := data.LoadEnemyTable(writeFixture(t, "enemies.yaml", testEnemiesYAML))
	if err != nil {
		t.Fatalf("load enemies: %v", err)
	}
	return table
}

func loadTestBosses(t *testing.T) *data.BossTable {
	t.Helper()
	table, err := data.LoadBossTable(writeFixture(t, "bosses.yaml", testBossesYAML))
	if err != nil {
		t.Fatalf("load bosses: %v", err)
	}
	return table
}

func loadTestJobs(t *testing.T) *data.JobTable {
	t.Helper()
	table, err := data.LoadJobTable(writeFixture(t, "jobs.yaml", testJobsYAML))
	if err != nil {
		t.Fatalf("load jobs: %v", err)
	}
	return table
}

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
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

func spawnExists(s *world.Store, id uint64) bool {
	found := false
	_ = s.Exec("spawn-exists", func(tx *world.Tx) error {
		_, found = tx.Spawn(id)
		return nil
	})
	return found
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

func getRoute(t *testing.T, s *world.Store, id int32) world.Route {
	t.Helper()
	var out world.Route
	found := false
	_ = s.Exec("get-route", func(tx *world.Tx) error {
		out, found = tx.Route(id)
		return nil
	})
	if !found {
		t.Fatalf("route %d missing", id)
	}
	return out
}

func routeSpawns(s *world.Store, routeID int32) []world.Spawn {
	var out []world.Spawn
	_ = s.Exec("route-spawns", func(tx *world.Tx) error {
		for _, sp := range tx.Spawns() {
			if sp.RouteID == routeID {
				out = append(out, sp)
			}
		}
		return nil
	})
	return out
}

func playerDamageEvents(s *world.Store) []world.PlayerDamageEvent {
	var out []world.PlayerDamageEvent
	_ = s.Exec("player-damage", func(tx *world.Tx) error {
		out = tx.PlayerDamageEvents()
		return nil
	})
	return out
}

func enemyDamageEvents(s *world.Store) []world.EnemyDamageEvent {
	var out []world.EnemyDamageEvent
	_ = s.Exec("enemy-damage", func(tx *world.Tx) error {
		out = tx.EnemyDamageEvents()
		return nil
	})
	return out
}

func broadcasts(s *world.Store) []world.Broadcast {
	var out []world.Broadcast
	_ = s.Exec("broadcasts", func(tx *world.Tx) error {
		out = tx.Broadcasts()
		return nil
	})
	return out
}

func attackStateFor(s *world.Store, spawnID uint64, slot int) (world.AttackState, bool) {
	var st world.AttackState
	found := false
	_ = s.Exec("attack-state", func(tx *world.Tx) error {
		st, found = tx.AttackState(spawnID, slot)
		return nil
	})
	return st, found
}
