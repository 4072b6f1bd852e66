// Package harness runs profiling workloads described as YAML scenarios.
//
// A scenario names a sequence of block executions to drive through the
// host: which block, how long the simulated guest work runs, how many
// repetitions, and whether the execution is deliberately abandoned.
// Scenarios back the CLI run command and the package tests.
package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one workload of block executions.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this workload exercises.
	Description string `yaml:"description,omitempty"`

	// Steps are executed strictly in order.
	Steps []Step `yaml:"steps"`
}

// Step executes one block one or more times.
type Step struct {
	// Block is the display name of the block to execute.
	// Blocks are registered with the runner's registry on first use.
	Block string `yaml:"block"`

	// Busy simulates guest work: each execution sleeps this long.
	Busy Duration `yaml:"busy,omitempty"`

	// Repeat is the number of executions (default 1).
	Repeat int `yaml:"repeat,omitempty"`

	// Abandon begins each execution but never finishes it. Abandoned
	// executions surface as discarded records at drain time.
	Abandon bool `yaml:"abandon,omitempty"`
}

// Duration wraps time.Duration with YAML support for strings like "150ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural requirements before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if step.Block == "" {
			return fmt.Errorf("step %d: block name is required", i)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("step %d (%s): repeat must be >= 0", i, step.Block)
		}
		if step.Busy < 0 {
			return fmt.Errorf("step %d (%s): busy must be >= 0", i, step.Block)
		}
	}
	return nil
}
