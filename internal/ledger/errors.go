package ledger

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// NotFoundError reports a lookup or reference to a record that does not
// exist.
type NotFoundError struct {
	Kind string // "session", "template", "analysis unit", "projection"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UniquenessError reports a duplicate (session, club, template) analysis
// unit. Duplicate template inserts are not errors; they resolve as
// idempotent no-ops instead.
type UniquenessError struct {
	SessionID    int64
	Club         string
	TemplateHash string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("analysis unit already exists for session=%d club=%q template=%s",
		e.SessionID, e.Club, e.TemplateHash)
}

// IsUniquenessViolation reports whether err is (or wraps) a UniquenessError.
func IsUniquenessViolation(err error) bool {
	var ue *UniquenessError
	return errors.As(err, &ue)
}

// ImmutabilityError reports an attempted mutation of a committed
// authoritative row. The target row is guaranteed unchanged: the trigger
// aborts the statement before any write lands.
type ImmutabilityError struct {
	Table string
}

func (e *ImmutabilityError) Error() string {
	return fmt.Sprintf("%s rows are immutable", e.Table)
}

// IsImmutabilityViolation reports whether err is (or wraps) an
// ImmutabilityError.
func IsImmutabilityViolation(err error) bool {
	var ie *ImmutabilityError
	return errors.As(err, &ie)
}

// InvariantError reports a record that violates a domain invariant before it
// ever reaches the database (grade counts not summing, inconsistent
// percentage/tier pairing, malformed hash).
type InvariantError struct {
	Field   string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// mapSQLiteError converts low-level sqlite constraint failures into the
// ledger's error taxonomy. Unrecognized errors pass through unchanged.
func mapSQLiteError(err error, table string) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}

	switch serr.ExtendedCode {
	case sqlite3.ErrConstraintTrigger:
		return &ImmutabilityError{Table: table}
	case sqlite3.ErrConstraintForeignKey:
		return &NotFoundError{Kind: "referenced record", Key: "(foreign key)"}
	default:
		return err
	}
}
