// internal/services/errors.go
package services

import (
	"errors"

	"github.com/lib/pq"

	"github.com/dealboard/dealboard-backend/internal/policy"
)

var (
	ErrDealNotFound  = errors.New("deal not found")
	ErrStoreNotFound = errors.New("store not found")
	ErrNotDealOwner  = errors.New("unauthorized to modify this deal")
	ErrEmptyBatch    = errors.New("batch contains no deals")
	ErrEmptyUpdate   = errors.New("update contains no changes")
)

// DuplicateError reports which submitted values collide, either within
// the batch itself or against persisted deals. The same shape is produced
// by the fast-path pre-check and by a unique-constraint violation on
// insert, so callers cannot tell the difference.
type DuplicateError struct {
	Message    string                 `json:"message"`
	Duplicates policy.CollisionReport `json:"duplicates"`
}

func (e *DuplicateError) Error() string {
	return e.Message
}

// BatchValidationError carries per-draft field errors keyed by the
// draft's position in the submitted batch.
type BatchValidationError struct {
	Errors map[string]policy.FieldErrors `json:"errors"`
}

func (e *BatchValidationError) Error() string {
	return "one or more deals failed validation"
}

// Postgres unique_violation
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return pqErr, true
	}
	return nil, false
}
