// Package trend composes analysis units into time-ordered, optionally
// windowed statistics. It is read-only: every result is recomputable from
// the ledger and nothing here is persisted.
package trend

import (
	"context"
	"fmt"
	"sort"

	"swingbook/internal/grading"
	"swingbook/internal/ledger"
)

// NoDataError reports that the category/tier filter matched nothing.
type NoDataError struct {
	Club    string
	MinTier grading.Tier
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no analysis units for club %q at or above tier %q", e.Club, e.MinTier)
}

// Point is one analysis unit joined with its session's date.
type Point struct {
	SessionDate string
	SessionID   int64
	UnitID      int64
	ShotCount   int
	Tier        grading.Tier
	APercentage *float64
}

// Result is an ephemeral trend aggregate for one club.
type Result struct {
	Club    string
	MinTier grading.Tier
	Points  []Point

	// WeightedAverage is the shot-count-weighted mean A-percentage over
	// points with a non-null percentage; nil when no such point exists.
	WeightedAverage *float64

	Sessions   int // distinct sessions contributing points
	TotalShots int
}

// Compute builds the trend for one club.
//
// Units at or above minTier are joined to their sessions, sorted ascending
// by session date, then optionally windowed to the N most recent distinct
// session dates (ties on a date keep all of that date's units).
func Compute(ctx context.Context, led *ledger.Ledger, club string, minTier grading.Tier, window int) (*Result, error) {
	units, err := led.ListUnitsByClub(ctx, club, minTier)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, &NoDataError{Club: club, MinTier: minTier}
	}

	points := make([]Point, 0, len(units))
	for _, u := range units {
		session, err := led.GetSession(ctx, u.SessionID)
		if err != nil {
			return nil, fmt.Errorf("trend: session of unit %d: %w", u.ID, err)
		}
		points = append(points, Point{
			SessionDate: session.Date,
			SessionID:   u.SessionID,
			UnitID:      u.ID,
			ShotCount:   u.ShotCount,
			Tier:        u.Tier,
			APercentage: u.APercentage,
		})
	}

	// ISO-8601 dates sort chronologically as strings.
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].SessionDate != points[j].SessionDate {
			return points[i].SessionDate < points[j].SessionDate
		}
		return points[i].UnitID < points[j].UnitID
	})

	if window > 0 {
		points = applyWindow(points, window)
	}

	result := &Result{
		Club:    club,
		MinTier: minTier,
		Points:  points,
	}

	var weighted float64
	var weightedShots int
	sessions := make(map[int64]struct{})
	for _, p := range points {
		sessions[p.SessionID] = struct{}{}
		result.TotalShots += p.ShotCount
		if p.APercentage != nil {
			weighted += *p.APercentage * float64(p.ShotCount)
			weightedShots += p.ShotCount
		}
	}
	result.Sessions = len(sessions)
	if weightedShots > 0 {
		avg := weighted / float64(weightedShots)
		result.WeightedAverage = &avg
	}

	return result, nil
}

// applyWindow keeps points whose session date is at or after the N-th most
// recent distinct date.
func applyWindow(points []Point, window int) []Point {
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, p := range points {
		if _, ok := seen[p.SessionDate]; !ok {
			seen[p.SessionDate] = struct{}{}
			dates = append(dates, p.SessionDate)
		}
	}
	if len(dates) <= window {
		return points
	}

	sort.Strings(dates)
	cutoff := dates[len(dates)-window]

	kept := points[:0]
	for _, p := range points {
		if p.SessionDate >= cutoff {
			kept = append(kept, p)
		}
	}
	return kept
}
