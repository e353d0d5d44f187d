package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEnemyTable(t *testing.T) {
	table, err := LoadEnemyTable(writeYAML(t, "enemies.yaml", `
enemies:
  - name: ember_wisp
    level: 2
    exp: 12
    hp: 20
    move_speed: 60
    damage: 3
    behavior: patrol
  - name: ash_hound
    level: 4
    exp: 30
    hp: 35
    move_speed: 140
    damage: 6
    behavior: aggressive
  - name: drifting_mote
    level: 1
    exp: 2
    hp: 5
    move_speed: 20
    damage: 1
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Count() != 3 {
		t.Fatalf("count = %d, want 3", table.Count())
	}

	hound := table.Get("ash_hound")
	if hound == nil {
		t.Fatalf("ash_hound missing")
	}
	if hound.Behavior != BehaviorAggressive {
		t.Fatalf("ash_hound behavior = %q, want aggressive", hound.Behavior)
	}
	if hound.HP != 35 || hound.MoveSpeed != 140 || hound.Exp != 30 {
		t.Fatalf("ash_hound stats = hp %d speed %v exp %d", hound.HP, hound.MoveSpeed, hound.Exp)
	}

	// Behavior is optional and defaults to patrol.
	mote := table.Get("drifting_mote")
	if mote == nil || mote.Behavior != BehaviorPatrol {
		t.Fatalf("drifting_mote behavior = %v, want patrol default", mote)
	}

	if table.Get("nonesuch") != nil {
		t.Fatalf("unknown template returned non-nil")
	}
}

func TestLoadEnemyTableMissingFile(t *testing.T) {
	if _, err := LoadEnemyTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadBossTableSortsSlots(t *testing.T) {
	table, err := LoadBossTable(writeYAML(t, "bosses.yaml", `
bosses:
  - name: maw_of_cinders
    level: 12
    exp: 900
    hp: 1100
    move_speed: 120
    aggro_range: 400
    attacks:
      - slot: 3
        kind: summon
        cooldown_ms: 20000
        range: 700
        animation_ms: 1800
      - slot: 1
        kind: directional
        damage: 9
        cooldown_ms: 2500
        range: 90
        hits: 3
        knockback: 25
        animation_ms: 700
      - slot: 2
        kind: area
        damage: 14
        cooldown_ms: 7000
        range: 150
        hits: 1
        knockback: 60
        animation_ms: 1100
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b := table.Get("maw_of_cinders")
	if b == nil {
		t.Fatalf("maw_of_cinders missing")
	}
	for i, want := range []int{1, 2, 3} {
		if b.Attacks[i].Slot != want {
			t.Fatalf("attacks[%d].Slot = %d, want %d", i, b.Attacks[i].Slot, want)
		}
	}

	atk := b.Attack(2)
	if atk == nil || atk.Kind != AttackArea {
		t.Fatalf("slot 2 = %v, want area attack", atk)
	}
	if atk.Cooldown() != 7*time.Second {
		t.Fatalf("slot 2 cooldown = %v, want 7s", atk.Cooldown())
	}
	if atk.Animation() != 1100*time.Millisecond {
		t.Fatalf("slot 2 animation = %v, want 1.1s", atk.Animation())
	}
	if b.Attack(3).Kind != AttackSummon {
		t.Fatalf("slot 3 kind = %q, want summon", b.Attack(3).Kind)
	}
	if b.Attack(9) != nil {
		t.Fatalf("unconfigured slot returned non-nil")
	}
}

func TestLoadBossTableRejectsDuplicateSlot(t *testing.T) {
	_, err := LoadBossTable(writeYAML(t, "bosses.yaml", `
bosses:
  - name: broken
    hp: 100
    attacks:
      - slot: 1
        kind: area
      - slot: 1
        kind: directional
`))
	if err == nil {
		t.Fatalf("expected duplicate slot error")
	}
}

func TestLoadBossTableRejectsSlotOutOfRange(t *testing.T) {
	for _, slot := range []string{"0", "4"} {
		_, err := LoadBossTable(writeYAML(t, "bosses.yaml", `
bosses:
  - name: broken
    hp: 100
    attacks:
      - slot: `+slot+`
        kind: area
`))
		if err == nil {
			t.Fatalf("expected error for slot %s", slot)
		}
	}
}

func TestLoadRouteList(t *testing.T) {
	routes, err := LoadRouteList(writeYAML(t, "routes.yaml", `
routes:
  - id: 1
    kind: regular
    type: ember_wisp
    min_x: 300
    max_x: 900
    min_y: 940
    max_y: 980
    max_enemies: 4
    interval: 30
  - id: 6
    kind: boss
    type: maw_of_cinders
    min_x: 3400
    max_x: 3900
    min_y: 940
    max_y: 980
    max_enemies: 1
    interval: 300
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}
	if routes[0].Type != "ember_wisp" || routes[0].MaxEnemies != 4 || routes[0].Interval != 30 {
		t.Fatalf("route 1 = %+v", routes[0])
	}
	if routes[1].Kind != "boss" {
		t.Fatalf("route 6 kind = %q, want boss", routes[1].Kind)
	}
}

func TestLoadRouteListRejectsDuplicateID(t *testing.T) {
	_, err := LoadRouteList(writeYAML(t, "routes.yaml", `
routes:
  - id: 1
    kind: regular
    type: ember_wisp
    max_x: 100
  - id: 1
    kind: regular
    type: ash_hound
    max_x: 100
`))
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRouteListRejectsInvertedRect(t *testing.T) {
	_, err := LoadRouteList(writeYAML(t, "routes.yaml", `
routes:
  - id: 1
    kind: regular
    type: ember_wisp
    min_x: 900
    max_x: 300
`))
	if err == nil {
		t.Fatalf("expected inverted rectangle error")
	}
}

func TestLoadJobTable(t *testing.T) {
	table, err := LoadJobTable(writeYAML(t, "jobs.yaml", `
jobs:
  - id: 0
    label: adventurer
  - id: 2
    label: pyromancer
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Count() != 2 {
		t.Fatalf("count = %d, want 2", table.Count())
	}
	if table.Get(2) == nil || table.Get(2).Label != "pyromancer" {
		t.Fatalf("job 2 = %v", table.Get(2))
	}
	if table.Get(7) != nil {
		t.Fatalf("unknown job returned non-nil")
	}
	if got := table.Label(2); got != "pyromancer" {
		t.Fatalf("Label(2) = %q", got)
	}
	if got := table.Label(7); got != "adventurer" {
		t.Fatalf("Label(7) = %q, want adventurer fallback", got)
	}
}
