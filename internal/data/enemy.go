package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Behavior selects the patrol-tier AI for a hostile type.
type Behavior string

const (
	BehaviorPatrol     Behavior = "patrol"     // bounce between route bounds, never aggro
	BehaviorAggressive Behavior = "aggressive" // acquire and chase players in range
)

// EnemyTemplate holds static data for a regular hostile type loaded from YAML.
type EnemyTemplate struct {
	Name      string   `yaml:"name"`
	Level     int16    `yaml:"level"`
	Exp       int64    `yaml:"exp"` // reward on kill
	HP        int32    `yaml:"hp"`
	MoveSpeed float64  `yaml:"move_speed"` // world units per second
	Damage    int32    `yaml:"damage"`
	Behavior  Behavior `yaml:"behavior"`
}

type enemyListFile struct {
	Enemies []EnemyTemplate `yaml:"enemies"`
}

// EnemyTable holds all regular hostile templates indexed by name.
type EnemyTable struct {
	templates map[string]*EnemyTemplate
}

// LoadEnemyTable loads hostile templates from a YAML file.
func LoadEnemyTable(path string) (*EnemyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemy list: %w", err)
	}
	var f enemyListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse enemy list: %w", err)
	}
	t := &EnemyTable{templates: make(map[string]*EnemyTemplate, len(f.Enemies))}
	for i := range f.Enemies {
		e := &f.Enemies[i]
		if e.Behavior == "" {
			e.Behavior = BehaviorPatrol
		}
		t.templates[e.Name] = e
	}
	return t, nil
}

// Get returns an enemy template by name, or nil if not found.
func (t *EnemyTable) Get(name string) *EnemyTemplate {
	return t.templates[name]
}

// Count returns the number of loaded templates.
func (t *EnemyTable) Count() int {
	return len(t.templates)
}
