package db

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/backlog.yaml
var defaultFixtures []byte

// Fixtures is a demo backlog described in YAML. Loading goes through the
// application services, so every hierarchy and sprint rule still applies.
type Fixtures struct {
	Sprint *SprintFixture `yaml:"sprint"`
	Epics  []EpicFixture  `yaml:"epics"`
	Items  []ItemFixture  `yaml:"items"` // parentless tasks and bugs
}

// SprintFixture describes the sprint to create before adding stories.
type SprintFixture struct {
	Name string `yaml:"name"`
	Goal string `yaml:"goal"`
}

// EpicFixture describes an epic and its stories.
type EpicFixture struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Stories     []StoryFixture `yaml:"stories"`
}

// StoryFixture describes a story, its tasks and bugs, and whether it is
// planned into the fixture sprint.
type StoryFixture struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Points      int           `yaml:"points"`
	InSprint    bool          `yaml:"in_sprint"`
	Items       []ItemFixture `yaml:"items"`
}

// ItemFixture describes a task or bug. Type defaults to task.
type ItemFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Points      int    `yaml:"points"`
	InSprint    bool   `yaml:"in_sprint"`
}

// ItemType returns the fixture's type, defaulting to task.
func (f ItemFixture) ItemType() string {
	if strings.TrimSpace(f.Type) == "" {
		return "task"
	}
	return f.Type
}

// DefaultFixtures returns the demo backlog shipped with the binary.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(bytes.NewReader(defaultFixtures))
}

// ParseFixtures decodes a YAML backlog. Unknown keys are rejected.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		if err == io.EOF {
			return &fx, nil
		}
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &fx, nil
}

// Count returns the number of items the fixtures will create.
func (f *Fixtures) Count() int {
	n := len(f.Items)
	for _, e := range f.Epics {
		n++
		for _, s := range e.Stories {
			n += 1 + len(s.Items)
		}
	}
	return n
}
