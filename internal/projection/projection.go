// Package projection generates derived, regenerable snapshots of analysis
// results.
//
// A snapshot joins one analysis unit with its parent session's date and
// stamps a generation time. Snapshots are not authoritative: they may be
// cached, exported, and deleted freely, and they can never be imported back.
// A snapshot has already lost the raw shots and their provenance, so
// round-tripping one into the ledger would corrupt authoritative history.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swingbook/internal/canon"
	"swingbook/internal/ledger"
)

// ErrImportProhibited is returned, unconditionally, by Import. The only
// legal path to authoritative data is the original ingestion path.
var ErrImportProhibited = errors.New(
	"projections are read-only exports and cannot be imported as authoritative data; re-ingest the original source file instead")

// Snapshot is one derived view of an analysis unit.
type Snapshot struct {
	SessionDate  string
	Club         string
	ShotCount    int
	ValidityTier string
	ACount       int
	BCount       int
	CCount       int
	APercentage  *float64
	AvgCarry     *float64
	AvgBallSpeed *float64
	AvgSpin      *float64
	AvgDescent   *float64
	TemplateHash string
	AnalyzedAt   string
	GeneratedAt  string
}

// Generate reads one analysis unit and its parent session and combines them
// into a Snapshot. Fails with the ledger's not-found error if either record
// is absent.
func Generate(ctx context.Context, led *ledger.Ledger, unitID int64) (*Snapshot, error) {
	unit, err := led.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	session, err := led.GetSession(ctx, unit.SessionID)
	if err != nil {
		return nil, fmt.Errorf("parent of unit %d: %w", unitID, err)
	}

	return &Snapshot{
		SessionDate:  session.Date,
		Club:         unit.Club,
		ShotCount:    unit.ShotCount,
		ValidityTier: unit.Tier.String(),
		ACount:       unit.ACount,
		BCount:       unit.BCount,
		CCount:       unit.CCount,
		APercentage:  unit.APercentage,
		AvgCarry:     unit.AvgCarry,
		AvgBallSpeed: unit.AvgBallSpeed,
		AvgSpin:      unit.AvgSpin,
		AvgDescent:   unit.AvgDescent,
		TemplateHash: unit.TemplateHash,
		AnalyzedAt:   unit.AnalyzedAt,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Serialize renders the snapshot through the canonical serializer: sorted
// keys, compact, byte-identical across repeated calls on the same value.
func (s *Snapshot) Serialize() ([]byte, error) {
	tree := canon.Map{
		"session_date":   canon.Str(s.SessionDate),
		"club":           canon.Str(s.Club),
		"shot_count":     canon.Num(float64(s.ShotCount)),
		"validity_tier":  canon.Str(s.ValidityTier),
		"a_count":        canon.Num(float64(s.ACount)),
		"b_count":        canon.Num(float64(s.BCount)),
		"c_count":        canon.Num(float64(s.CCount)),
		"a_percentage":   nullableNum(s.APercentage),
		"avg_carry":      nullableNum(s.AvgCarry),
		"avg_ball_speed": nullableNum(s.AvgBallSpeed),
		"avg_spin":       nullableNum(s.AvgSpin),
		"avg_descent":    nullableNum(s.AvgDescent),
		"template_hash":  canon.Str(s.TemplateHash),
		"analyzed_at":    canon.Str(s.AnalyzedAt),
		"generated_at":   canon.Str(s.GeneratedAt),
	}
	return canon.Marshal(tree)
}

// Cache serializes the snapshot and stores it in the droppable cache table.
func Cache(ctx context.Context, led *ledger.Ledger, unitID int64, s *Snapshot) (int64, error) {
	body, err := s.Serialize()
	if err != nil {
		return 0, fmt.Errorf("cache projection: %w", err)
	}
	return led.SaveProjection(ctx, unitID, body, s.GeneratedAt)
}

// Import rejects every attempt to treat projection bytes as authoritative
// input. It never parses the payload; no content can make this succeed.
func Import(_ []byte) error {
	return ErrImportProhibited
}

func nullableNum(v *float64) canon.Value {
	if v == nil {
		return canon.Null{}
	}
	return canon.Num(*v)
}
