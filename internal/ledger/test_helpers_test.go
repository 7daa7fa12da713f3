package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"swingbook/internal/grading"
	"swingbook/internal/template"
)

// newTestLedger opens a fresh ledger in a temp directory.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// insertTestSession inserts a minimal valid session.
func insertTestSession(t *testing.T, l *Ledger) int64 {
	t.Helper()

	id, err := l.InsertSession(context.Background(), Session{
		Date:       "2026-08-01T17:00:00Z",
		SourceFile: "range.csv",
		IngestID:   "0b5e7a1c-0000-4000-8000-000000000001",
	})
	require.NoError(t, err)
	return id
}

// insertTestTemplate builds and inserts a template for the given club.
func insertTestTemplate(t *testing.T, l *Ledger, club string, aCutoff float64) string {
	t.Helper()

	tmpl, err := template.New(club, map[string]grading.Threshold{
		"ball_speed": {Direction: grading.HigherIsBetter, ACutoff: aCutoff, BCutoff: aCutoff - 7},
	}, template.Provenance{Source: "templates.yaml", RuleVersion: "v1.0"})
	require.NoError(t, err)

	hash, _, err := l.InsertTemplate(context.Background(), tmpl)
	require.NoError(t, err)
	return hash
}

// validUnit returns a well-formed unit for the given references.
func validUnit(sessionID int64, club, templateHash string) AnalysisUnit {
	pct := 60.0
	carry := 148.2
	return AnalysisUnit{
		SessionID:    sessionID,
		Club:         club,
		TemplateHash: templateHash,
		ShotCount:    20,
		Tier:         grading.TierValid,
		ACount:       12,
		BCount:       5,
		CCount:       3,
		APercentage:  &pct,
		AvgCarry:     &carry,
		AnalyzedAt:   "2026-08-01T17:30:00Z",
	}
}
