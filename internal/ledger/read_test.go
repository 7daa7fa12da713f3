package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swingbook/internal/grading"
)

func TestGetSessionNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GetSession(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListSessionsOrdered(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	first := insertTestSession(t, l)
	second := insertTestSession(t, l)

	sessions, err := l.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].ID)
	assert.Equal(t, second, sessions[1].ID)
}

func TestGetTemplateReconstructsDomainType(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	hash := insertTestTemplate(t, l, "7i", 105)

	tmpl, err := l.GetTemplate(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, tmpl.Hash())
	assert.Equal(t, "7i", tmpl.Club())
	assert.Equal(t, grading.AggWorstMetric, tmpl.Aggregation())

	rule, ok := tmpl.Metrics()["ball_speed"]
	require.True(t, ok)
	assert.Equal(t, 105.0, rule.ACutoff)
}

func TestGetTemplateNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GetTemplate(context.Background(),
		"00000000000000000000000000000000000000000000000000000000000000ff")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListTemplatesByClub(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	h1 := insertTestTemplate(t, l, "7i", 105)
	h2 := insertTestTemplate(t, l, "7i", 108)
	insertTestTemplate(t, l, "driver", 155)

	records, err := l.ListTemplatesByClub(ctx, "7i")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, []string{h1, h2}, []string{records[0].Hash, records[1].Hash})

	clubs, err := l.ListTemplateClubs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"7i", "driver"}, clubs)
}

func TestListUnitsBySession(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	sessionID := insertTestSession(t, l)
	h7i := insertTestTemplate(t, l, "7i", 105)
	hDr := insertTestTemplate(t, l, "driver", 155)

	_, err := l.InsertAnalysisUnit(ctx, validUnit(sessionID, "driver", hDr))
	require.NoError(t, err)
	_, err = l.InsertAnalysisUnit(ctx, validUnit(sessionID, "7i", h7i))
	require.NoError(t, err)

	units, err := l.ListUnitsBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "7i", units[0].Club)
	assert.Equal(t, "driver", units[1].Club)
}

func TestListUnitsByClubTierFilter(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	hash := insertTestTemplate(t, l, "7i", 105)

	insert := func(tier grading.Tier, count, aCount int) {
		t.Helper()
		sessionID := insertTestSession(t, l)
		u := AnalysisUnit{
			SessionID:    sessionID,
			Club:         "7i",
			TemplateHash: hash,
			ShotCount:    count,
			Tier:         tier,
			ACount:       aCount,
			BCount:       count - aCount,
			APercentage:  grading.Percentage(aCount, count, tier),
			AnalyzedAt:   "2026-08-01T17:30:00Z",
		}
		_, err := l.InsertAnalysisUnit(ctx, u)
		require.NoError(t, err)
	}

	insert(grading.TierInsufficient, 3, 2)
	insert(grading.TierLowSample, 8, 4)
	insert(grading.TierValid, 20, 12)

	all, err := l.ListUnitsByClub(ctx, "7i", grading.TierInsufficient)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	warned, err := l.ListUnitsByClub(ctx, "7i", grading.TierLowSample)
	require.NoError(t, err)
	assert.Len(t, warned, 2)

	validOnly, err := l.ListUnitsByClub(ctx, "7i", grading.TierValid)
	require.NoError(t, err)
	require.Len(t, validOnly, 1)
	assert.Equal(t, grading.TierValid, validOnly[0].Tier)
}

func TestProjectionCacheLifecycle(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	sessionID := insertTestSession(t, l)
	hash := insertTestTemplate(t, l, "7i", 105)
	unitID, err := l.InsertAnalysisUnit(ctx, validUnit(sessionID, "7i", hash))
	require.NoError(t, err)

	projID, err := l.SaveProjection(ctx, unitID, []byte(`{"club":"7i"}`), "2026-08-01T18:00:00Z")
	require.NoError(t, err)

	cached, err := l.GetProjection(ctx, projID)
	require.NoError(t, err)
	assert.Equal(t, unitID, cached.UnitID)

	n, err := l.PurgeProjections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = l.GetProjection(ctx, projID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// Deleting every cached projection leaves every authoritative read
// byte-identical to its pre-deletion result.
func TestProjectionPurgeIsolation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	sessionID := insertTestSession(t, l)
	hash := insertTestTemplate(t, l, "7i", 105)
	unitID, err := l.InsertAnalysisUnit(ctx, validUnit(sessionID, "7i", hash))
	require.NoError(t, err)

	_, err = l.SaveProjection(ctx, unitID, []byte(`{"club":"7i"}`), "2026-08-01T18:00:00Z")
	require.NoError(t, err)

	sessionBefore, err := l.GetSession(ctx, sessionID)
	require.NoError(t, err)
	templateBefore, err := l.GetTemplateRecord(ctx, hash)
	require.NoError(t, err)
	unitBefore, err := l.GetUnit(ctx, unitID)
	require.NoError(t, err)
	unitsBefore, err := l.ListUnitsByClub(ctx, "7i", grading.TierInsufficient)
	require.NoError(t, err)

	_, err = l.PurgeProjections(ctx)
	require.NoError(t, err)

	sessionAfter, err := l.GetSession(ctx, sessionID)
	require.NoError(t, err)
	templateAfter, err := l.GetTemplateRecord(ctx, hash)
	require.NoError(t, err)
	unitAfter, err := l.GetUnit(ctx, unitID)
	require.NoError(t, err)
	unitsAfter, err := l.ListUnitsByClub(ctx, "7i", grading.TierInsufficient)
	require.NoError(t, err)

	assert.Equal(t, sessionBefore, sessionAfter)
	assert.Equal(t, templateBefore, templateAfter)
	assert.Equal(t, unitBefore, unitAfter)
	assert.Equal(t, unitsBefore, unitsAfter)
}
