package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Projection cache operations. The cache is derived and regenerable: unlike
// the authoritative tables it has no immutability triggers and may be
// emptied at will. Nothing authoritative references it.

// CachedProjection is one cached snapshot body.
type CachedProjection struct {
	ID          int64
	UnitID      int64
	Body        string
	GeneratedAt string
}

// SaveProjection caches a serialized snapshot for a unit.
func (l *Ledger) SaveProjection(ctx context.Context, unitID int64, body []byte, generatedAt string) (int64, error) {
	result, err := l.db.ExecContext(ctx, `
		INSERT INTO projection_cache (unit_id, body, generated_at)
		VALUES (?, ?, ?)
	`, unitID, string(body), generatedAt)
	if err != nil {
		return 0, fmt.Errorf("save projection: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save projection: last insert id: %w", err)
	}
	return id, nil
}

// GetProjection retrieves one cached snapshot by id.
func (l *Ledger) GetProjection(ctx context.Context, id int64) (CachedProjection, error) {
	var p CachedProjection
	err := l.db.QueryRowContext(ctx, `
		SELECT projection_id, unit_id, body, generated_at
		FROM projection_cache
		WHERE projection_id = ?
	`, id).Scan(&p.ID, &p.UnitID, &p.Body, &p.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedProjection{}, &NotFoundError{Kind: "projection", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return CachedProjection{}, fmt.Errorf("get projection: %w", err)
	}
	return p, nil
}

// PurgeProjections deletes every cached projection and returns how many rows
// were removed. Authoritative reads are unaffected.
func (l *Ledger) PurgeProjections(ctx context.Context) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM projection_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge projections: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge projections: rows affected: %w", err)
	}
	return n, nil
}
