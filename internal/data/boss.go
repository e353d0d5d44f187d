package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// AttackKind selects how a boss attack resolves.
type AttackKind string

const (
	AttackArea        AttackKind = "area"        // hits within radius, facing ignored
	AttackDirectional AttackKind = "directional" // hits only in front of the boss
	AttackSummon      AttackKind = "summon"      // tops up routes in range instead of damaging
)

// AttackTemplate is one boss attack slot. Slots are numbered 1..3 and map
// onto the attack1..attack3 animation states.
type AttackTemplate struct {
	Slot        int        `yaml:"slot"`
	Kind        AttackKind `yaml:"kind"`
	Damage      int32      `yaml:"damage"` // per hit
	CooldownMS  int64      `yaml:"cooldown_ms"`
	Range       float64    `yaml:"range"`
	Hits        int        `yaml:"hits"`
	Knockback   float64    `yaml:"knockback"` // per hit, world units
	AnimationMS int64      `yaml:"animation_ms"`
}

func (a *AttackTemplate) Cooldown() time.Duration {
	return time.Duration(a.CooldownMS) * time.Millisecond
}

// Animation is the recovery time the boss is locked in this attack's state.
func (a *AttackTemplate) Animation() time.Duration {
	return time.Duration(a.AnimationMS) * time.Millisecond
}

// BossTemplate holds static data for a boss type loaded from YAML.
type BossTemplate struct {
	Name       string           `yaml:"name"`
	Level      int16            `yaml:"level"`
	Exp        int64            `yaml:"exp"`
	HP         int32            `yaml:"hp"`
	MoveSpeed  float64          `yaml:"move_speed"`
	AggroRange float64          `yaml:"aggro_range"`
	Attacks    []AttackTemplate `yaml:"attacks"`
}

// Attack returns the template for a slot, or nil if the boss has none there.
func (b *BossTemplate) Attack(slot int) *AttackTemplate {
	for i := range b.Attacks {
		if b.Attacks[i].Slot == slot {
			return &b.Attacks[i]
		}
	}
	return nil
}

type bossListFile struct {
	Bosses []BossTemplate `yaml:"bosses"`
}

// BossTable holds all boss templates indexed by name.
type BossTable struct {
	templates map[string]*BossTemplate
}

// LoadBossTable loads boss templates from a YAML file. Attack slots must be
// unique per boss and within 1..3.
func LoadBossTable(path string) (*BossTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boss list: %w", err)
	}
	var f bossListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse boss list: %w", err)
	}
	t := &BossTable{templates: make(map[string]*BossTemplate, len(f.Bosses))}
	for i := range f.Bosses {
		b := &f.Bosses[i]
		seen := make(map[int]bool, len(b.Attacks))
		for j := range b.Attacks {
			slot := b.Attacks[j].Slot
			if slot < 1 || slot > 3 {
				return nil, fmt.Errorf("boss %s: attack slot %d out of range", b.Name, slot)
			}
			if seen[slot] {
				return nil, fmt.Errorf("boss %s: duplicate attack slot %d", b.Name, slot)
			}
			seen[slot] = true
		}
		// Slot order is the fallback attack-policy order.
		sort.Slice(b.Attacks, func(x, y int) bool { return b.Attacks[x].Slot < b.Attacks[y].Slot })
		t.templates[b.Name] = b
	}
	return t, nil
}

// Get returns a boss template by name, or nil if not found.
func (t *BossTable) Get(name string) *BossTemplate {
	return t.templates[name]
}

// Count returns the number of loaded templates.
func (t *BossTable) Count() int {
	return len(t.templates)
}
