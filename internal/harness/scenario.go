package harness

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is a named list of translation cases run against one catalog.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the path of the CUE field catalog the cases translate
	// against. Relative paths are resolved against the scenario file.
	Catalog string `yaml:"catalog"`

	// Strict is the default mode for every case.
	Strict bool `yaml:"strict,omitempty"`

	// Cases are translated in order.
	Cases []Case `yaml:"cases"`
}

// Case is one query and the assertions on its translation.
type Case struct {
	// Name identifies the case inside the scenario.
	Name string `yaml:"name"`

	// Query is the textual query tree.
	Query string `yaml:"query"`

	// Strict overrides the scenario mode when set.
	Strict *bool `yaml:"strict,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a case outcome.
type Assertion struct {
	// Type selects the check:
	// - "sets": the filter sets, in order, as Set.String renders them
	// - "set_count": the number of filter sets
	// - "illegal": the illegality flag
	// - "residual": the printed residual query
	// - "local": the methods left in the residual query
	// - "sort": the pushed ordering ("" for none)
	// - "paging": the pushed skip and limit
	// - "columns": the column restriction
	// - "error": the error code and, optionally, its hint
	Type string `yaml:"type"`

	// Sets are the expected sets (sets).
	Sets []string `yaml:"sets,omitempty"`

	// Count is the expected set count (set_count).
	Count int `yaml:"count,omitempty"`

	// Value is the expected flag (illegal).
	Value bool `yaml:"value,omitempty"`

	// Text is the expected printed form (residual, sort).
	Text string `yaml:"text,omitempty"`

	// Items are the expected names (local, columns).
	Items []string `yaml:"items,omitempty"`

	// Skip and Limit are the expected paging directives (paging).
	// Omitted means no directive.
	Skip  *int `yaml:"skip,omitempty"`
	Limit *int `yaml:"limit,omitempty"`

	// Code and Hint describe the expected error (error).
	Code string `yaml:"code,omitempty"`
	Hint string `yaml:"hint,omitempty"`
}

// Assertion type constants.
const (
	AssertSets     = "sets"
	AssertSetCount = "set_count"
	AssertIllegal  = "illegal"
	AssertResidual = "residual"
	AssertLocal    = "local"
	AssertSort     = "sort"
	AssertPaging   = "paging"
	AssertColumns  = "columns"
	AssertError    = "error"
)

// LoadScenario reads and parses a scenario YAML file. The catalog path is
// resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	// Reject unknown fields so typos like "assertion:" surface.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Catalog == "" {
		return errors.New("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return errors.Newf("catalog file not found: %s", s.Catalog)
	}
	if len(s.Cases) == 0 {
		return errors.New("cases list is required and must be non-empty")
	}

	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.Name == "" {
			return errors.Newf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return errors.Newf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Query == "" {
			return errors.Newf("cases[%d]: query is required", i)
		}
		if len(c.Assertions) == 0 {
			return errors.Newf("cases[%d]: assertions list is required and must be non-empty", i)
		}
		for j := range c.Assertions {
			if err := validateAssertion(i, j, &c.Assertions[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(caseIndex, index int, a *Assertion) error {
	if a.Type == "" {
		return errors.Newf("cases[%d].assertions[%d]: type is required", caseIndex, index)
	}

	switch a.Type {
	case AssertSets, AssertIllegal, AssertResidual, AssertLocal, AssertSort, AssertPaging, AssertColumns:
	case AssertSetCount:
		if a.Count < 1 {
			return errors.Newf("cases[%d].assertions[%d]: count must be positive for set_count", caseIndex, index)
		}
	case AssertError:
		if a.Code == "" {
			return errors.Newf("cases[%d].assertions[%d]: code is required for error", caseIndex, index)
		}
	default:
		return errors.Newf("cases[%d].assertions[%d]: unknown assertion type %q", caseIndex, index, a.Type)
	}
	return nil
}
