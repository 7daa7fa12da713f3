package trend

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swingbook/internal/grading"
	"swingbook/internal/ledger"
	"swingbook/internal/template"
)

type fixture struct {
	led   *ledger.Ledger
	hash  string
	batch int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	led, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { led.Close() })

	tmpl, err := template.New("7i", map[string]grading.Threshold{
		"ball_speed": {Direction: grading.HigherIsBetter, ACutoff: 105, BCutoff: 98},
	}, template.Provenance{Source: "templates.yaml", RuleVersion: "v1.0"})
	require.NoError(t, err)
	hash, _, err := led.InsertTemplate(context.Background(), tmpl)
	require.NoError(t, err)

	return &fixture{led: led, hash: hash}
}

// addSession inserts a session on the given date with one 7i unit. The A
// count is derived from pct so counts and percentage stay consistent.
func (f *fixture) addSession(t *testing.T, date string, shots int, pct *float64) int64 {
	t.Helper()
	ctx := context.Background()

	f.batch++
	sessionID, err := f.led.InsertSession(ctx, ledger.Session{
		Date:       date,
		SourceFile: "range.csv",
		IngestID:   fmt.Sprintf("0b5e7a1c-0000-4000-8000-%012d", f.batch),
	})
	require.NoError(t, err)

	aCount := 0
	if pct != nil {
		aCount = int(*pct * float64(shots) / 100)
	}
	unit := ledger.AnalysisUnit{
		SessionID:    sessionID,
		Club:         "7i",
		TemplateHash: f.hash,
		ShotCount:    shots,
		Tier:         grading.Validity(shots),
		ACount:       aCount,
		CCount:       shots - aCount,
		APercentage:  pct,
		AnalyzedAt:   date,
	}
	_, err = f.led.InsertAnalysisUnit(ctx, unit)
	require.NoError(t, err)
	return sessionID
}

func pctOf(v float64) *float64 { return &v }

func TestComputeNoData(t *testing.T) {
	f := newFixture(t)

	_, err := Compute(context.Background(), f.led, "7i", grading.TierInsufficient, 0)
	require.Error(t, err)
	var noData *NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, "7i", noData.Club)
}

func TestComputeMinTierFilters(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "2026-08-01T09:00:00Z", 3, nil)         // insufficient
	f.addSession(t, "2026-08-02T09:00:00Z", 8, pctOf(100))  // low sample
	f.addSession(t, "2026-08-03T09:00:00Z", 20, pctOf(100)) // valid

	res, err := Compute(context.Background(), f.led, "7i", grading.TierValid, 0)
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, "2026-08-03T09:00:00Z", res.Points[0].SessionDate)

	res, err = Compute(context.Background(), f.led, "7i", grading.TierInsufficient, 0)
	require.NoError(t, err)
	assert.Len(t, res.Points, 3)
}

func TestComputeSortsBySessionDate(t *testing.T) {
	f := newFixture(t)
	// Inserted out of chronological order.
	f.addSession(t, "2026-08-03T09:00:00Z", 20, pctOf(50))
	f.addSession(t, "2026-08-01T09:00:00Z", 20, pctOf(40))
	f.addSession(t, "2026-08-02T09:00:00Z", 20, pctOf(60))

	res, err := Compute(context.Background(), f.led, "7i", grading.TierValid, 0)
	require.NoError(t, err)
	require.Len(t, res.Points, 3)
	for i := 1; i < len(res.Points); i++ {
		assert.LessOrEqual(t, res.Points[i-1].SessionDate, res.Points[i].SessionDate)
	}
}

func TestComputeWindowKeepsMostRecentDistinctDates(t *testing.T) {
	f := newFixture(t)
	dates := []string{
		"2026-08-01T09:00:00Z",
		"2026-08-04T09:00:00Z",
		"2026-08-09T09:00:00Z",
		"2026-08-15T09:00:00Z",
		"2026-08-22T09:00:00Z",
	}
	for _, d := range dates {
		f.addSession(t, d, 20, pctOf(50))
	}

	res, err := Compute(context.Background(), f.led, "7i", grading.TierValid, 3)
	require.NoError(t, err)
	require.Len(t, res.Points, 3)
	assert.Equal(t, dates[2], res.Points[0].SessionDate)
	assert.Equal(t, dates[3], res.Points[1].SessionDate)
	assert.Equal(t, dates[4], res.Points[2].SessionDate)
	assert.Equal(t, 3, res.Sessions)
}

func TestComputeWindowLargerThanHistory(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "2026-08-01T09:00:00Z", 20, pctOf(50))
	f.addSession(t, "2026-08-02T09:00:00Z", 20, pctOf(60))

	res, err := Compute(context.Background(), f.led, "7i", grading.TierValid, 10)
	require.NoError(t, err)
	assert.Len(t, res.Points, 2)
}

func TestComputeWeightedAverage(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "2026-08-01T09:00:00Z", 30, pctOf(40))
	f.addSession(t, "2026-08-02T09:00:00Z", 10, pctOf(80))

	res, err := Compute(context.Background(), f.led, "7i", grading.TierValid, 0)
	require.NoError(t, err)
	require.NotNil(t, res.WeightedAverage)
	// (40*30 + 80*10) / 40 = 50, not the unweighted 60.
	assert.InDelta(t, 50.0, *res.WeightedAverage, 1e-9)
	assert.Equal(t, 40, res.TotalShots)
}

func TestComputeAverageNilWithoutPercentages(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "2026-08-01T09:00:00Z", 3, nil)
	f.addSession(t, "2026-08-02T09:00:00Z", 4, nil)

	res, err := Compute(context.Background(), f.led, "7i", grading.TierInsufficient, 0)
	require.NoError(t, err)
	assert.Nil(t, res.WeightedAverage)
	assert.Equal(t, 7, res.TotalShots)
}
