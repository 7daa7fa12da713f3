package template

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"swingbook/internal/grading"
)

//go:embed schema.cue
var schemaCUE string

// Store is the ledger surface the loader needs. Insert is idempotent:
// inserted is false when the hash already existed.
type Store interface {
	InsertTemplate(ctx context.Context, t *Template) (hash string, inserted bool, err error)
}

// ThresholdDef is one metric's rule as written in a definitions file.
// Direction may be omitted; the canonical direction for the metric applies.
type ThresholdDef struct {
	Direction string  `yaml:"direction"`
	ACutoff   float64 `yaml:"a_cutoff"`
	BCutoff   float64 `yaml:"b_cutoff"`
}

// Definitions is a parsed threshold-definitions file.
type Definitions struct {
	SchemaVersion string                              `yaml:"schema_version"`
	RuleVersion   string                              `yaml:"rule_version"`
	Clubs         map[string]map[string]ThresholdDef `yaml:"clubs"`

	source string
}

// Rejection records a club whose definition could not become a template.
type Rejection struct {
	Club   string
	Reason string
}

// LoadReport summarizes one load run. Hashes in Inserted were newly written;
// hashes in Existing were already present (idempotent no-op).
type LoadReport struct {
	Inserted []string
	Existing []string
	Rejected []Rejection
}

// LoadFile reads, validates, and inserts every club's template from a YAML
// definitions file.
func LoadFile(ctx context.Context, store Store, path string) (*LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, err
	}
	defs.source = path
	return Load(ctx, store, defs)
}

// ParseDefinitions parses YAML definitions and validates them against the
// embedded CUE schema. Schema violations fail the whole file; per-club
// problems are deferred to Load so one bad club cannot block the rest.
func ParseDefinitions(data []byte) (*Definitions, error) {
	// Generic parse first so CUE sees exactly what was written.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, err
	}

	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if defs.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("definitions schema_version %q: expected %q", defs.SchemaVersion, SchemaVersion)
	}
	return &defs, nil
}

// validateAgainstSchema unifies the raw document with #Definitions.
func validateAgainstSchema(raw map[string]any) error {
	cctx := cuecontext.New()

	schemaVal := cctx.CompileString(schemaCUE)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile definitions schema: %w", err)
	}
	schema := schemaVal.LookupPath(cue.ParsePath("#Definitions"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("lookup definitions schema: %w", err)
	}

	doc := cctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("definitions schema violation: %w", err)
	}
	return nil
}

// Load builds one template per club and inserts each idempotently. Clubs are
// processed in sorted order so reports are deterministic.
func Load(ctx context.Context, store Store, defs *Definitions) (*LoadReport, error) {
	report := &LoadReport{}

	clubs := make([]string, 0, len(defs.Clubs))
	for club := range defs.Clubs {
		clubs = append(clubs, club)
	}
	sort.Strings(clubs)

	for _, club := range clubs {
		tmpl, err := buildTemplate(club, defs.Clubs[club], Provenance{
			Source:      defs.source,
			RuleVersion: defs.RuleVersion,
		})
		if err != nil {
			report.Rejected = append(report.Rejected, Rejection{Club: club, Reason: err.Error()})
			continue
		}

		hash, inserted, err := store.InsertTemplate(ctx, tmpl)
		if err != nil {
			return nil, fmt.Errorf("insert template for club %q: %w", club, err)
		}
		if inserted {
			report.Inserted = append(report.Inserted, hash)
		} else {
			report.Existing = append(report.Existing, hash)
		}
	}

	return report, nil
}

// buildTemplate converts one club's definitions into a Template.
func buildTemplate(club string, rules map[string]ThresholdDef, prov Provenance) (*Template, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no metric rules defined")
	}

	metrics := make(map[string]grading.Threshold, len(rules))
	for name, def := range rules {
		var dir grading.Direction
		if def.Direction == "" {
			d, ok := DefaultDirection(name)
			if !ok {
				return nil, &UnsupportedMetricError{Club: club, Metric: name}
			}
			dir = d
		} else {
			d, err := grading.ParseDirection(def.Direction)
			if err != nil {
				return nil, err
			}
			dir = d
		}
		metrics[name] = grading.Threshold{Direction: dir, ACutoff: def.ACutoff, BCutoff: def.BCutoff}
	}

	return New(club, metrics, prov)
}
