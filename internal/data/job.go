package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JobDef maps a job ID to its display label (used by the leaderboard and
// validated on job-change requests).
type JobDef struct {
	ID    int16  `yaml:"id"`
	Label string `yaml:"label"`
}

type jobListFile struct {
	Jobs []JobDef `yaml:"jobs"`
}

// JobTable holds all job definitions indexed by ID.
type JobTable struct {
	jobs map[int16]*JobDef
}

// LoadJobTable loads job definitions from a YAML file.
func LoadJobTable(path string) (*JobTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job list: %w", err)
	}
	var f jobListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse job list: %w", err)
	}
	t := &JobTable{jobs: make(map[int16]*JobDef, len(f.Jobs))}
	for i := range f.Jobs {
		j := &f.Jobs[i]
		t.jobs[j.ID] = j
	}
	return t, nil
}

// Get returns a job definition by ID, or nil if not found.
func (t *JobTable) Get(id int16) *JobDef {
	return t.jobs[id]
}

// Label returns the display label for a job ID, or "adventurer" when unknown.
func (t *JobTable) Label(id int16) string {
	if j := t.jobs[id]; j != nil {
		return j.Label
	}
	return "adventurer"
}

// Count returns the number of loaded job definitions.
func (t *JobTable) Count() int {
	return len(t.jobs)
}
