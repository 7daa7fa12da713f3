package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"swingbook/internal/grading"
	"swingbook/internal/template"
)

// Read operations are pure lookups. None of them mutates state, and none of
// them canonicalizes or hashes anything: stored hashes are authoritative.

// GetSession retrieves a session by id.
func (l *Ledger) GetSession(ctx context.Context, id int64) (Session, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT session_id, session_date, source_file, device_type, location, ingest_id, ingested_at
		FROM sessions
		WHERE session_id = ?
	`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, &NotFoundError{Kind: "session", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListSessions returns all sessions in insertion order.
func (l *Ledger) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT session_id, session_date, source_file, device_type, location, ingest_id, ingested_at
		FROM sessions
		ORDER BY session_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetTemplate retrieves a template by hash and reconstructs the domain type
// from its stored canonical content. The stored hash is returned as-is.
func (l *Ledger) GetTemplate(ctx context.Context, hash string) (*template.Template, error) {
	rec, err := l.GetTemplateRecord(ctx, hash)
	if err != nil {
		return nil, err
	}
	t, err := template.FromStored(rec.Hash, []byte(rec.CanonicalJSON))
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// GetTemplateRecord retrieves the raw template row by hash.
func (l *Ledger) GetTemplateRecord(ctx context.Context, hash string) (TemplateRecord, error) {
	var rec TemplateRecord
	err := l.db.QueryRowContext(ctx, `
		SELECT template_hash, schema_version, club, canonical_json, created_at
		FROM templates
		WHERE template_hash = ?
	`, hash).Scan(&rec.Hash, &rec.SchemaVersion, &rec.Club, &rec.CanonicalJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateRecord{}, &NotFoundError{Kind: "template", Key: hash}
	}
	if err != nil {
		return TemplateRecord{}, fmt.Errorf("get template record: %w", err)
	}
	return rec, nil
}

// ListTemplatesByClub returns template rows for one club, oldest first.
func (l *Ledger) ListTemplatesByClub(ctx context.Context, club string) ([]TemplateRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT template_hash, schema_version, club, canonical_json, created_at
		FROM templates
		WHERE club = ?
		ORDER BY created_at ASC, template_hash ASC
	`, club)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	records := []TemplateRecord{}
	for rows.Next() {
		var rec TemplateRecord
		if err := rows.Scan(&rec.Hash, &rec.SchemaVersion, &rec.Club, &rec.CanonicalJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return records, nil
}

// ListTemplateClubs returns the distinct clubs that have templates, sorted.
func (l *Ledger) ListTemplateClubs(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT club FROM templates ORDER BY club ASC`)
	if err != nil {
		return nil, fmt.Errorf("list template clubs: %w", err)
	}
	defer rows.Close()

	clubs := []string{}
	for rows.Next() {
		var club string
		if err := rows.Scan(&club); err != nil {
			return nil, fmt.Errorf("list template clubs: %w", err)
		}
		clubs = append(clubs, club)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list template clubs: %w", err)
	}
	return clubs, nil
}

// GetUnit retrieves one analysis unit by id.
func (l *Ledger) GetUnit(ctx context.Context, id int64) (AnalysisUnit, error) {
	row := l.db.QueryRowContext(ctx, unitSelect+` WHERE unit_id = ?`, id)

	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisUnit{}, &NotFoundError{Kind: "analysis unit", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return AnalysisUnit{}, fmt.Errorf("get analysis unit: %w", err)
	}
	return u, nil
}

// ListUnitsBySession returns a session's units ordered by club.
func (l *Ledger) ListUnitsBySession(ctx context.Context, sessionID int64) ([]AnalysisUnit, error) {
	rows, err := l.db.QueryContext(ctx, unitSelect+`
		WHERE session_id = ?
		ORDER BY club ASC, unit_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list units by session: %w", err)
	}
	return collectUnits(rows, "list units by session")
}

// ListUnitsByClub returns a club's units at or above minTier, ordered by
// analysis time. Filtering is explicit: the caller always states the floor.
func (l *Ledger) ListUnitsByClub(ctx context.Context, club string, minTier grading.Tier) ([]AnalysisUnit, error) {
	tiers := []any{club}
	placeholders := ""
	for t := minTier; t <= grading.TierValid; t++ {
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		tiers = append(tiers, t.String())
	}

	rows, err := l.db.QueryContext(ctx, unitSelect+`
		WHERE club = ? AND validity_tier IN (`+placeholders+`)
		ORDER BY analyzed_at ASC, unit_id ASC
	`, tiers...)
	if err != nil {
		return nil, fmt.Errorf("list units by club: %w", err)
	}
	return collectUnits(rows, "list units by club")
}

const unitSelect = `
	SELECT unit_id, session_id, club, template_hash, shot_count, validity_tier,
	       a_count, b_count, c_count, a_percentage,
	       avg_carry, avg_ball_speed, avg_spin, avg_descent, analyzed_at
	FROM analysis_units`

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var s Session
	var device, location sql.NullString
	if err := sc.Scan(&s.ID, &s.Date, &s.SourceFile, &device, &location, &s.IngestID, &s.IngestedAt); err != nil {
		return Session{}, err
	}
	if device.Valid {
		s.DeviceType = &device.String
	}
	if location.Valid {
		s.Location = &location.String
	}
	return s, nil
}

func scanUnit(sc scanner) (AnalysisUnit, error) {
	var u AnalysisUnit
	var tier string
	var pct, carry, speed, spin, descent sql.NullFloat64
	err := sc.Scan(
		&u.ID, &u.SessionID, &u.Club, &u.TemplateHash, &u.ShotCount, &tier,
		&u.ACount, &u.BCount, &u.CCount, &pct,
		&carry, &speed, &spin, &descent, &u.AnalyzedAt,
	)
	if err != nil {
		return AnalysisUnit{}, err
	}

	u.Tier, err = grading.ParseTier(tier)
	if err != nil {
		return AnalysisUnit{}, err
	}
	u.APercentage = nullableFloat(pct)
	u.AvgCarry = nullableFloat(carry)
	u.AvgBallSpeed = nullableFloat(speed)
	u.AvgSpin = nullableFloat(spin)
	u.AvgDescent = nullableFloat(descent)
	return u, nil
}

func collectUnits(rows *sql.Rows, op string) ([]AnalysisUnit, error) {
	defer rows.Close()

	units := []AnalysisUnit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return units, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
