// Package template defines content-addressed scoring templates and the
// loader that imports raw threshold definitions.
//
// A Template's identity is the SHA-256 of its canonical JSON content. The
// hash is computed exactly once, inside New, and carried as an unexported
// field afterward: nothing outside the constructor can set or recompute it,
// so the read path (FromStored) structurally cannot re-derive identity.
package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"swingbook/internal/canon"
	"swingbook/internal/grading"
)

// SchemaVersion is the current template content schema.
const SchemaVersion = "1.0"

// metricDirections is the closed set of supported metrics and their
// canonical threshold orientations. Direction is assigned from this table
// when a definition omits it; it is never inferred from threshold values.
var metricDirections = map[string]grading.Direction{
	"ball_speed":    grading.HigherIsBetter,
	"smash_factor":  grading.HigherIsBetter,
	"spin_rate":     grading.HigherIsBetter,
	"descent_angle": grading.HigherIsBetter,
}

// SupportedMetrics returns the supported metric names, sorted.
func SupportedMetrics() []string {
	names := make([]string, 0, len(metricDirections))
	for name := range metricDirections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultDirection returns the canonical direction for a supported metric.
func DefaultDirection(metric string) (grading.Direction, bool) {
	d, ok := metricDirections[metric]
	return d, ok
}

var clubCaser = cases.Lower(language.Und)

// NormalizeClub trims and lower-cases a club label so "7 Iron", "7 IRON",
// and "7 iron" name the same club everywhere: in templates, in ingested
// sessions, and in queries.
func NormalizeClub(raw string) string {
	return clubCaser.String(strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`)))
}

// Provenance records where a template's thresholds came from.
type Provenance struct {
	Source      string
	RuleVersion string
}

// Template is an immutable, content-addressed scoring definition.
type Template struct {
	hash      string
	canonical []byte

	schemaVersion string
	club          string
	metrics       map[string]grading.Threshold
	aggregation   string
	provenance    Provenance
}

// UnsupportedMetricError reports a definition metric outside the supported set.
type UnsupportedMetricError struct {
	Club   string
	Metric string
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("club %q: unsupported metric %q (supported: %v)", e.Club, e.Metric, SupportedMetrics())
}

// New builds a Template, canonicalizes its content, and computes its hash.
// This is the single place identity is derived.
func New(club string, metrics map[string]grading.Threshold, prov Provenance) (*Template, error) {
	club = NormalizeClub(club)
	if club == "" {
		return nil, fmt.Errorf("template: club must not be empty")
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("template: at least one metric rule is required")
	}
	for name := range metrics {
		if _, ok := metricDirections[name]; !ok {
			return nil, &UnsupportedMetricError{Club: club, Metric: name}
		}
	}

	t := &Template{
		schemaVersion: SchemaVersion,
		club:          club,
		metrics:       cloneMetrics(metrics),
		aggregation:   grading.AggWorstMetric,
		provenance:    prov,
	}

	content, err := t.contentTree()
	if err != nil {
		return nil, err
	}
	canonical, err := canon.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("template: canonicalize: %w", err)
	}

	t.canonical = canonical
	t.hash = canon.HashBytes(canonical)
	return t, nil
}

// FromStored reconstructs a Template from ledger storage. The stored hash is
// authoritative and trusted as-is; this path performs no canonicalization
// and no hashing.
func FromStored(hash string, canonicalJSON []byte) (*Template, error) {
	var content struct {
		SchemaVersion string `json:"schema_version"`
		Club          string `json:"club"`
		Metrics       map[string]struct {
			Direction string  `json:"direction"`
			ACutoff   float64 `json:"a_cutoff"`
			BCutoff   float64 `json:"b_cutoff"`
		} `json:"metrics"`
		Aggregation string `json:"aggregation"`
		Source      string `json:"source"`
		RuleVersion string `json:"rule_version"`
	}
	if err := json.Unmarshal(canonicalJSON, &content); err != nil {
		return nil, fmt.Errorf("template: parse stored content: %w", err)
	}

	metrics := make(map[string]grading.Threshold, len(content.Metrics))
	for name, rule := range content.Metrics {
		dir, err := grading.ParseDirection(rule.Direction)
		if err != nil {
			return nil, fmt.Errorf("template: stored metric %q: %w", name, err)
		}
		metrics[name] = grading.Threshold{Direction: dir, ACutoff: rule.ACutoff, BCutoff: rule.BCutoff}
	}

	return &Template{
		hash:          hash,
		canonical:     append([]byte(nil), canonicalJSON...),
		schemaVersion: content.SchemaVersion,
		club:          content.Club,
		metrics:       metrics,
		aggregation:   content.Aggregation,
		provenance:    Provenance{Source: content.Source, RuleVersion: content.RuleVersion},
	}, nil
}

// Hash returns the template's content address.
func (t *Template) Hash() string { return t.hash }

// CanonicalJSON returns the canonical content bytes.
func (t *Template) CanonicalJSON() []byte {
	return append([]byte(nil), t.canonical...)
}

// SchemaVersion returns the content schema version.
func (t *Template) SchemaVersion() string { return t.schemaVersion }

// Club returns the target club label.
func (t *Template) Club() string { return t.club }

// Aggregation returns the aggregation method tag.
func (t *Template) Aggregation() string { return t.aggregation }

// Provenance returns the template's provenance fields.
func (t *Template) Provenance() Provenance { return t.provenance }

// Metrics returns a copy of the per-metric threshold rules.
func (t *Template) Metrics() map[string]grading.Threshold {
	return cloneMetrics(t.metrics)
}

// Classify grades one shot against this template.
func (t *Template) Classify(shot map[string]float64) (grading.Grade, error) {
	return grading.Classify(shot, t.metrics, t.aggregation)
}

// contentTree builds the canonical value tree for hashing.
func (t *Template) contentTree() (canon.Value, error) {
	metrics := make(canon.Map, len(t.metrics))
	for name, rule := range t.metrics {
		metrics[name] = canon.Map{
			"direction": canon.Str(rule.Direction.String()),
			"a_cutoff":  canon.Num(rule.ACutoff),
			"b_cutoff":  canon.Num(rule.BCutoff),
		}
	}

	return canon.Map{
		"schema_version": canon.Str(t.schemaVersion),
		"club":           canon.Str(t.club),
		"metrics":        metrics,
		"aggregation":    canon.Str(t.aggregation),
		"source":         canon.Str(t.provenance.Source),
		"rule_version":   canon.Str(t.provenance.RuleVersion),
	}, nil
}

func cloneMetrics(m map[string]grading.Threshold) map[string]grading.Threshold {
	out := make(map[string]grading.Threshold, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
