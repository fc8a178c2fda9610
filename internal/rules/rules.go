// Package rules provides the versioned lookup tables used by the query parser and the industry classifier.
// Default tables are embedded at compile time; an override directory may replace either table.
// Loaded tables are plain values handed to components at construction.
package rules

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/career-transitions/internal/schemas"
)

//go:embed *.json
var ruleFiles embed.FS

const (
	industriesName = "industries"
	lexiconName    = "lexicon"
)

// IndustryTable is the ordered rule set used to classify company names.
// Exact entries are checked before rules; rules are evaluated in order and the first match wins.
type IndustryTable struct {
	Version string            `json:"version" yaml:"version"`
	Default string            `json:"default" yaml:"default"`
	Labels  []string          `json:"labels" yaml:"labels"`
	Exact   map[string]string `json:"exact" yaml:"exact"`
	Rules   []PatternGroup    `json:"rules" yaml:"rules"`
}

// PatternGroup maps a set of regular expressions to one label.
type PatternGroup struct {
	Label    string   `json:"label" yaml:"label"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// CompanyAliases maps alternate spellings to one canonical company name.
type CompanyAliases struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Aliases   []string `json:"aliases" yaml:"aliases"`
}

// RoleKeywords maps role keywords to one canonical role.
type RoleKeywords struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Keywords  []string `json:"keywords" yaml:"keywords"`
}

// Cues holds the patterns that drive query type classification.
type Cues struct {
	Compare       []string `json:"compare" yaml:"compare"`
	ExitsTo       []string `json:"exits_to" yaml:"exits_to"`
	ExitsFrom     []string `json:"exits_from" yaml:"exits_from"`
	DirectionTo   []string `json:"direction_to" yaml:"direction_to"`
	DirectionFrom []string `json:"direction_from" yaml:"direction_from"`
}

// FollowUps holds follow-up prompt templates. {{.Company}} is replaced with the first company named.
type FollowUps struct {
	ExitsFromGeneric string   `json:"exits_from_generic" yaml:"exits_from_generic"`
	ExitsToGeneric   string   `json:"exits_to_generic" yaml:"exits_to_generic"`
	CompareGeneric   string   `json:"compare_generic" yaml:"compare_generic"`
	Generic          string   `json:"generic" yaml:"generic"`
	Clarification    string   `json:"clarification" yaml:"clarification"`
	Examples         []string `json:"examples" yaml:"examples"`
}

// Lexicon is the vocabulary the query parser extracts entities and intent with.
type Lexicon struct {
	Version    string           `json:"version" yaml:"version"`
	Companies  []CompanyAliases `json:"companies" yaml:"companies"`
	Roles      []RoleKeywords   `json:"roles" yaml:"roles"`
	Industries []PatternGroup   `json:"industries" yaml:"industries"`
	Locations  []PatternGroup   `json:"locations" yaml:"locations"`
	Cues       Cues             `json:"cues" yaml:"cues"`
	FollowUps  FollowUps        `json:"follow_ups" yaml:"follow_ups"`
}

// Tables bundles both rule tables.
type Tables struct {
	Industries IndustryTable
	Lexicon    Lexicon
}

// LoadError reports a rule table that could not be read, decoded, or validated.
type LoadError struct {
	Name  string
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	source := e.Path
	if source == "" {
		source = "embedded"
	}
	return fmt.Sprintf("failed to load %s rules (%s): %v", e.Name, source, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the embedded tables. It panics if they are invalid, which is a build defect.
func Default() *Tables {
	tables, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded rule tables are invalid: %v", err))
	}
	return tables
}

// Load returns the rule tables. When dir is non-empty, industries.{json,yaml,yml} and
// lexicon.{json,yaml,yml} found there replace the embedded defaults; missing files fall back.
func Load(dir string) (*Tables, error) {
	var tables Tables
	if err := loadTable(dir, industriesName, &tables.Industries); err != nil {
		return nil, err
	}
	if err := loadTable(dir, lexiconName, &tables.Lexicon); err != nil {
		return nil, err
	}
	return &tables, nil
}

// loadTable reads one table, validates it against its schema, and decodes it into out.
func loadTable(dir, name string, out any) error {
	document, path, err := readTable(dir, name)
	if err != nil {
		return &LoadError{Name: name, Path: path, Cause: err}
	}

	schema, err := ruleFiles.ReadFile(name + ".schema.json")
	if err != nil {
		return &LoadError{Name: name, Path: path, Cause: err}
	}
	if err := schemas.Validate(name, schema, document); err != nil {
		return &LoadError{Name: name, Path: path, Cause: err}
	}

	if err := json.Unmarshal(document, out); err != nil {
		return &LoadError{Name: name, Path: path, Cause: err}
	}
	return nil
}

// readTable returns the table as JSON bytes, plus the override path it came from (empty if embedded).
func readTable(dir, name string) ([]byte, string, error) {
	if dir != "" {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, path, err
			}
			document, err := toJSON(data)
			return document, path, err
		}
	}

	data, err := ruleFiles.ReadFile(name + ".json")
	return data, "", err
}

// toJSON decodes YAML (a superset of JSON) and re-encodes it as JSON for schema validation.
func toJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rule file: %w", err)
	}
	return json.Marshal(doc)
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
