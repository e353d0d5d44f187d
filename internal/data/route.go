package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RouteEntry seeds one spawn route. The live route table in the store is
// re-seedable from these entries at boot and via the ops re-seed command.
type RouteEntry struct {
	ID         int32   `yaml:"id"`
	Kind       string  `yaml:"kind"` // "regular" or "boss"
	Type       string  `yaml:"type"` // enemy or boss template name
	MinX       float64 `yaml:"min_x"`
	MaxX       float64 `yaml:"max_x"`
	MinY       float64 `yaml:"min_y"`
	MaxY       float64 `yaml:"max_y"`
	MaxEnemies int     `yaml:"max_enemies"`
	Interval   int     `yaml:"interval"` // seconds between deficit fills
}

type routeListFile struct {
	Routes []RouteEntry `yaml:"routes"`
}

// LoadRouteList loads route seed entries from a YAML file.
func LoadRouteList(path string) ([]RouteEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route list: %w", err)
	}
	var f routeListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse route list: %w", err)
	}
	seen := make(map[int32]bool, len(f.Routes))
	for _, r := range f.Routes {
		if seen[r.ID] {
			return nil, fmt.Errorf("route list: duplicate route id %d", r.ID)
		}
		seen[r.ID] = true
		if r.MinX > r.MaxX || r.MinY > r.MaxY {
			return nil, fmt.Errorf("route %d: inverted rectangle", r.ID)
		}
	}
	return f.Routes, nil
}
