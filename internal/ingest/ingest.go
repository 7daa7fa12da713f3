// Package ingest turns a launch-monitor CSV export into one immutable
// session plus one analysis unit per club.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"swingbook/internal/grading"
	"swingbook/internal/ledger"
	"swingbook/pkg/logger"
)

// Options control one ingestion run.
type Options struct {
	// TemplateByClub selects the grading template hash for each club.
	// Clubs present in the CSV but absent here are skipped, not failed.
	TemplateByClub map[string]string

	DeviceType  string
	Location    string
	SessionDate string // ISO-8601; empty means now
}

// ClubResult is the outcome for one club within a session.
type ClubResult struct {
	Club         string
	UnitID       int64
	TemplateHash string
	ShotCount    int
	Tier         grading.Tier
	Counts       grading.Counts
	APercentage  *float64
}

// Report is the full outcome of one ingestion run.
type Report struct {
	SessionID     int64
	IngestID      string
	Clubs         []ClubResult
	SkippedClubs  []string // clubs with shots but no selected template
	MalformedRows int
	FooterRows    int
}

// Ingester wires parsing, grading, and the ledger together.
type Ingester struct {
	led *ledger.Ledger
	log logger.Logger
}

func New(led *ledger.Ledger, log logger.Logger) *Ingester {
	return &Ingester{led: led, log: log.Named("ingest")}
}

// IngestFile ingests a CSV export from disk.
func (in *Ingester) IngestFile(ctx context.Context, path string, opts Options) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()
	return in.Ingest(ctx, f, filepath.Base(path), opts)
}

// Ingest parses the export, records the session, then grades and records
// one analysis unit per club with a selected template. If any unit insert
// fails the whole run fails; the session row that was already written stays,
// since session rows are immutable and harmless without units.
func (in *Ingester) Ingest(ctx context.Context, r io.Reader, sourceFile string, opts Options) (*Report, error) {
	parsed, err := ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceFile, err)
	}
	if parsed.MalformedRows > 0 {
		in.log.Warn("skipped malformed rows",
			logger.String("file", sourceFile),
			logger.Int("rows", parsed.MalformedRows))
	}

	sessionDate := opts.SessionDate
	if sessionDate == "" {
		sessionDate = time.Now().UTC().Format(time.RFC3339)
	}

	session := ledger.Session{
		Date:       sessionDate,
		SourceFile: sourceFile,
		IngestID:   uuid.NewString(),
	}
	if opts.DeviceType != "" {
		session.DeviceType = &opts.DeviceType
	}
	if opts.Location != "" {
		session.Location = &opts.Location
	}

	sessionID, err := in.led.InsertSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	report := &Report{
		SessionID:     sessionID,
		IngestID:      session.IngestID,
		MalformedRows: parsed.MalformedRows,
		FooterRows:    parsed.FooterRows,
	}

	clubs := make([]string, 0, len(parsed.ShotsByClub))
	for club := range parsed.ShotsByClub {
		clubs = append(clubs, club)
	}
	sort.Strings(clubs)

	for _, club := range clubs {
		hash, ok := opts.TemplateByClub[NormalizeClub(club)]
		if !ok {
			report.SkippedClubs = append(report.SkippedClubs, club)
			in.log.Info("no template selected for club, skipping",
				logger.String("club", club),
				logger.Int("shots", len(parsed.ShotsByClub[club])))
			continue
		}

		result, err := in.analyzeClub(ctx, sessionID, club, hash, parsed.ShotsByClub[club])
		if err != nil {
			return nil, fmt.Errorf("club %s: %w", club, err)
		}
		report.Clubs = append(report.Clubs, result)
	}

	in.log.Info("session ingested",
		logger.Int64("session_id", sessionID),
		logger.String("ingest_id", report.IngestID),
		logger.Int("clubs", len(report.Clubs)),
		logger.Int("shots", parsed.TotalShots()))

	return report, nil
}

// analyzeClub grades one club's shots against its template and records the
// unit. The template must already exist in the ledger.
func (in *Ingester) analyzeClub(ctx context.Context, sessionID int64, club, hash string, shots []Shot) (ClubResult, error) {
	tmpl, err := in.led.GetTemplate(ctx, hash)
	if err != nil {
		return ClubResult{}, err
	}

	var counts grading.Counts
	for _, shot := range shots {
		grade, err := tmpl.Classify(shot.Metrics)
		if err != nil {
			return ClubResult{}, fmt.Errorf("classify shot: %w", err)
		}
		counts.Add(grade)
	}

	tier := grading.Validity(counts.Total())
	pct := grading.Percentage(counts.A, counts.Total(), tier)

	unit := ledger.AnalysisUnit{
		SessionID:    sessionID,
		Club:         club,
		TemplateHash: hash,
		ShotCount:    counts.Total(),
		Tier:         tier,
		ACount:       counts.A,
		BCount:       counts.B,
		CCount:       counts.C,
		APercentage:  pct,
		AvgCarry:     average(shots, "carry_distance"),
		AvgBallSpeed: average(shots, "ball_speed"),
		AvgSpin:      average(shots, "spin_rate"),
		AvgDescent:   average(shots, "descent_angle"),
		AnalyzedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	unitID, err := in.led.InsertAnalysisUnit(ctx, unit)
	if err != nil {
		return ClubResult{}, err
	}

	return ClubResult{
		Club:         club,
		UnitID:       unitID,
		TemplateHash: hash,
		ShotCount:    counts.Total(),
		Tier:         tier,
		Counts:       counts,
		APercentage:  pct,
	}, nil
}

// SelectTemplates resolves one template hash per requested club from the
// ledger, preferring the most recently created template for each club.
func SelectTemplates(ctx context.Context, led *ledger.Ledger, clubs []string) (map[string]string, error) {
	selected := make(map[string]string, len(clubs))
	for _, club := range clubs {
		norm := NormalizeClub(club)
		records, err := led.ListTemplatesByClub(ctx, norm)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}
		selected[norm] = records[len(records)-1].Hash
	}
	return selected, nil
}

func average(shots []Shot, metric string) *float64 {
	var sum float64
	var n int
	for _, s := range shots {
		if v, ok := s.Metrics[metric]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
