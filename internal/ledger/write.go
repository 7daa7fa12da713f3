package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/mattn/go-sqlite3"

	"swingbook/internal/grading"
	"swingbook/internal/template"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// now returns the current UTC time in the ledger's timestamp format.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// InsertSession appends a session and returns its assigned identifier.
// Identifiers increase monotonically. IngestedAt defaults to now.
func (l *Ledger) InsertSession(ctx context.Context, s Session) (int64, error) {
	if s.Date == "" {
		return 0, &InvariantError{Field: "session date", Message: "must not be empty"}
	}
	if s.SourceFile == "" {
		return 0, &InvariantError{Field: "source file", Message: "must not be empty"}
	}
	if s.IngestID == "" {
		return 0, &InvariantError{Field: "ingest id", Message: "must not be empty"}
	}
	if s.IngestedAt == "" {
		s.IngestedAt = now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert session: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (session_date, source_file, device_type, location, ingest_id, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.Date, s.SourceFile, s.DeviceType, s.Location, s.IngestID, s.IngestedAt)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", mapSQLiteError(err, "sessions"))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert session: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert session: commit: %w", err)
	}
	return id, nil
}

// InsertTemplate appends a template keyed by its caller-computed hash.
// Idempotent: when the hash already exists the insert is a no-op and
// inserted is false. The hash is trusted, never recomputed here.
func (l *Ledger) InsertTemplate(ctx context.Context, t *template.Template) (hash string, inserted bool, err error) {
	hash = t.Hash()
	if !hashPattern.MatchString(hash) {
		return "", false, &InvariantError{Field: "template hash", Message: "must be 64 lowercase hex characters"}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("insert template: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO templates (template_hash, schema_version, club, canonical_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(template_hash) DO NOTHING
	`, hash, t.SchemaVersion(), t.Club(), string(t.CanonicalJSON()), now())
	if err != nil {
		return "", false, fmt.Errorf("insert template: %w", mapSQLiteError(err, "templates"))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("insert template: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("insert template: commit: %w", err)
	}
	return hash, affected > 0, nil
}

// InsertAnalysisUnit appends a graded club batch. It fails with a
// NotFoundError when the session or template is absent, a UniquenessError
// when the (session, club, template) triple already exists, and an
// InvariantError when counts or the percentage/tier pairing are
// inconsistent. The insert is atomic: on any failure nothing is written.
func (l *Ledger) InsertAnalysisUnit(ctx context.Context, u AnalysisUnit) (int64, error) {
	if err := validateUnit(u); err != nil {
		return 0, err
	}
	if u.AnalyzedAt == "" {
		u.AnalyzedAt = now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert analysis unit: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Resolve references up front so the caller learns which one is
	// missing; the foreign keys remain as a backstop.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE session_id = ?`, u.SessionID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("insert analysis unit: check session: %w", err)
	}
	if exists == 0 {
		return 0, &NotFoundError{Kind: "session", Key: fmt.Sprint(u.SessionID)}
	}

	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates WHERE template_hash = ?`, u.TemplateHash).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("insert analysis unit: check template: %w", err)
	}
	if exists == 0 {
		return 0, &NotFoundError{Kind: "template", Key: u.TemplateHash}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO analysis_units
		(session_id, club, template_hash, shot_count, validity_tier,
		 a_count, b_count, c_count, a_percentage,
		 avg_carry, avg_ball_speed, avg_spin, avg_descent, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.SessionID, u.Club, u.TemplateHash, u.ShotCount, u.Tier.String(),
		u.ACount, u.BCount, u.CCount, u.APercentage,
		u.AvgCarry, u.AvgBallSpeed, u.AvgSpin, u.AvgDescent, u.AnalyzedAt,
	)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, &UniquenessError{SessionID: u.SessionID, Club: u.Club, TemplateHash: u.TemplateHash}
		}
		return 0, fmt.Errorf("insert analysis unit: %w", mapSQLiteError(err, "analysis_units"))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert analysis unit: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert analysis unit: commit: %w", err)
	}
	return id, nil
}

// validateUnit checks domain invariants before anything touches the
// database.
func validateUnit(u AnalysisUnit) error {
	if u.Club == "" {
		return &InvariantError{Field: "club", Message: "must not be empty"}
	}
	if !hashPattern.MatchString(u.TemplateHash) {
		return &InvariantError{Field: "template hash", Message: "must be 64 lowercase hex characters"}
	}
	if u.ACount < 0 || u.BCount < 0 || u.CCount < 0 {
		return &InvariantError{Field: "grade counts", Message: "must not be negative"}
	}
	if u.ACount+u.BCount+u.CCount != u.ShotCount {
		return &InvariantError{
			Field: "grade counts",
			Message: fmt.Sprintf("a+b+c = %d does not match shot count %d",
				u.ACount+u.BCount+u.CCount, u.ShotCount),
		}
	}
	switch u.Tier {
	case grading.TierInsufficient:
		if u.APercentage != nil {
			return &InvariantError{Field: "a_percentage", Message: "must be null when validity is insufficient_data"}
		}
	case grading.TierLowSample, grading.TierValid:
		if u.APercentage == nil {
			return &InvariantError{Field: "a_percentage", Message: "must be set when validity is above insufficient_data"}
		}
	default:
		return &InvariantError{Field: "validity tier", Message: fmt.Sprintf("unknown tier %d", int(u.Tier))}
	}
	return nil
}
