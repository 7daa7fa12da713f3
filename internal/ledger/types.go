package ledger

import "swingbook/internal/grading"

// Session is one ingestion event. Immutable once inserted.
type Session struct {
	ID         int64
	Date       string // ISO-8601, session wall time
	SourceFile string
	DeviceType *string
	Location   *string
	IngestID   string // batch identifier for provenance
	IngestedAt string // ISO-8601
}

// AnalysisUnit is the graded result of one club's shots within one session
// under one template. Immutable once inserted.
type AnalysisUnit struct {
	ID           int64
	SessionID    int64
	Club         string
	TemplateHash string

	ShotCount int
	Tier      grading.Tier
	ACount    int
	BCount    int
	CCount    int

	// APercentage is nil exactly when Tier is TierInsufficient.
	APercentage *float64

	AvgCarry     *float64
	AvgBallSpeed *float64
	AvgSpin      *float64
	AvgDescent   *float64

	AnalyzedAt string // ISO-8601
}

// TemplateRecord is a template row as stored. The hash was computed by the
// template's creator; reads return it verbatim.
type TemplateRecord struct {
	Hash          string
	SchemaVersion string
	Club          string
	CanonicalJSON string
	CreatedAt     string
}
