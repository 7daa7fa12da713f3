package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swingbook/internal/grading"
)

func testMetrics() map[string]grading.Threshold {
	return map[string]grading.Threshold{
		"ball_speed":   {Direction: grading.HigherIsBetter, ACutoff: 105, BCutoff: 98},
		"smash_factor": {Direction: grading.HigherIsBetter, ACutoff: 1.38, BCutoff: 1.3},
	}
}

func TestNewComputesHashOnce(t *testing.T) {
	tmpl, err := New("7i", testMetrics(), Provenance{Source: "templates.yaml", RuleVersion: "v1.0"})
	require.NoError(t, err)

	assert.Len(t, tmpl.Hash(), 64)
	assert.NotEmpty(t, tmpl.CanonicalJSON())
	assert.Equal(t, "7i", tmpl.Club())
	assert.Equal(t, grading.AggWorstMetric, tmpl.Aggregation())
	assert.Equal(t, SchemaVersion, tmpl.SchemaVersion())
}

func TestNewHashIsDeterministic(t *testing.T) {
	prov := Provenance{Source: "templates.yaml", RuleVersion: "v1.0"}

	t1, err := New("7i", testMetrics(), prov)
	require.NoError(t, err)
	t2, err := New("7i", testMetrics(), prov)
	require.NoError(t, err)

	assert.Equal(t, t1.Hash(), t2.Hash())
	assert.Equal(t, t1.CanonicalJSON(), t2.CanonicalJSON())
}

func TestNewHashVariesWithContent(t *testing.T) {
	prov := Provenance{Source: "templates.yaml", RuleVersion: "v1.0"}

	base, err := New("7i", testMetrics(), prov)
	require.NoError(t, err)

	changed := testMetrics()
	changed["ball_speed"] = grading.Threshold{Direction: grading.HigherIsBetter, ACutoff: 106, BCutoff: 98}
	other, err := New("7i", changed, prov)
	require.NoError(t, err)

	assert.NotEqual(t, base.Hash(), other.Hash())
}

func TestNewRejectsUnsupportedMetric(t *testing.T) {
	metrics := map[string]grading.Threshold{
		"launch_mood": {Direction: grading.HigherIsBetter, ACutoff: 1, BCutoff: 0},
	}

	_, err := New("7i", metrics, Provenance{})
	require.Error(t, err)

	var uerr *UnsupportedMetricError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "launch_mood", uerr.Metric)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New("", testMetrics(), Provenance{})
	require.Error(t, err)

	_, err = New("7i", nil, Provenance{})
	require.Error(t, err)
}

// FromStored trusts the supplied hash; it never recomputes identity. A
// deliberately wrong hash must survive the round trip untouched.
func TestFromStoredTrustsHash(t *testing.T) {
	tmpl, err := New("7i", testMetrics(), Provenance{Source: "templates.yaml", RuleVersion: "v1.0"})
	require.NoError(t, err)

	bogus := "beef" + tmpl.Hash()[4:]
	restored, err := FromStored(bogus, tmpl.CanonicalJSON())
	require.NoError(t, err)

	assert.Equal(t, bogus, restored.Hash())
	assert.Equal(t, tmpl.Club(), restored.Club())
	assert.Equal(t, tmpl.Metrics(), restored.Metrics())
	assert.Equal(t, tmpl.Provenance(), restored.Provenance())
}

func TestFromStoredRejectsBadContent(t *testing.T) {
	_, err := FromStored("x", []byte(`not json`))
	require.Error(t, err)

	_, err = FromStored("x", []byte(`{"metrics":{"ball_speed":{"direction":"diagonal"}}}`))
	require.Error(t, err)
}

func TestTemplateClassifyUsesOwnRules(t *testing.T) {
	tmpl, err := New("7i", testMetrics(), Provenance{})
	require.NoError(t, err)

	grade, err := tmpl.Classify(map[string]float64{"ball_speed": 100, "smash_factor": 1.4})
	require.NoError(t, err)
	assert.Equal(t, grading.GradeB, grade)
}

func TestMetricsReturnsCopy(t *testing.T) {
	tmpl, err := New("7i", testMetrics(), Provenance{})
	require.NoError(t, err)

	m := tmpl.Metrics()
	m["ball_speed"] = grading.Threshold{Direction: grading.LowerIsBetter}

	assert.NotEqual(t, m["ball_speed"], tmpl.Metrics()["ball_speed"])
}
