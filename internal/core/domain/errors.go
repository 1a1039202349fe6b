package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrScoreNotFound    = errors.New("pack health score not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindLabel names the semantic kind of err for logs and metric labels.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsKind(err, ErrDocumentNotFound), IsKind(err, ErrScoreNotFound):
		return "not_found"
	case IsKind(err, ErrInvalidDocument):
		return "invalid_document"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
