package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/relations"
)

// Scenario is a sequence of relation commands followed by assertions on the
// resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// TokenPrefix sets the operation tokens to "<prefix>-1", "<prefix>-2", ...
	// Defaults to "op".
	TokenPrefix string `yaml:"token_prefix,omitempty"`

	// Steps are executed in order. Each is journaled.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and journal.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one mutating command and its expected outcome.
type Step struct {
	engine.Command `yaml:",inline"`

	// Expect is "ok" or the failure code the step must produce.
	// Empty means "ok".
	Expect string `yaml:"expect,omitempty"`
}

// Expected returns the normalized expectation.
func (s Step) Expected() string {
	if s.Expect == "" {
		return ExpectOK
	}
	return s.Expect
}

// ExpectOK is the expectation for a step that must succeed.
const ExpectOK = "ok"

// Assertion validates the state after all steps ran.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Tag is the tag under test (relations, ungrouped).
	Tag string `yaml:"tag,omitempty"`

	// Group is the expected group name (relations).
	Group string `yaml:"group,omitempty"`

	// Tags are the expected members of the group, any order (relations).
	// Nil skips the check.
	Tags []string `yaml:"tags,omitempty"`

	// Ancestors are the expected ancestor names, nearest first (relations).
	// Nil means none.
	Ancestors []string `yaml:"ancestors,omitempty"`

	// Groups are the expected group names in pre-order (forest).
	Groups []string `yaml:"groups,omitempty"`

	// Count is the expected number of journal entries (journal).
	Count *int `yaml:"count,omitempty"`

	// Failed is the expected number of rejected entries (journal).
	Failed *int `yaml:"failed,omitempty"`
}

// Assertion type constants.
const (
	AssertRelations  = "relations"
	AssertUngrouped  = "ungrouped"
	AssertForest     = "forest"
	AssertInvariants = "invariants"
	AssertJournal    = "journal"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := step.Command.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if !step.Command.Mutating() {
			return fmt.Errorf("steps[%d]: %s is a read, use a relations or forest assertion", i, step.Op)
		}
		if exp := step.Expected(); exp != ExpectOK && !relations.KnownCode(exp) {
			return fmt.Errorf("steps[%d]: unknown expect %q", i, exp)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRelations:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for relations", index)
		}
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for relations", index)
		}
	case AssertUngrouped:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for ungrouped", index)
		}
	case AssertForest:
		if a.Groups == nil {
			return fmt.Errorf("assertions[%d]: groups list is required for forest", index)
		}
	case AssertInvariants:
	case AssertJournal:
		if a.Count == nil && a.Failed == nil {
			return fmt.Errorf("assertions[%d]: count or failed is required for journal", index)
		}
		if (a.Count != nil && *a.Count < 0) || (a.Failed != nil && *a.Failed < 0) {
			return fmt.Errorf("assertions[%d]: journal counts must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
