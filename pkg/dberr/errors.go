package dberr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by a table operation matches exactly one of
// them with errors.Is.
var (
	ErrDuplicatePrimaryKey    = errors.New("duplicate primary key")
	ErrAccessViolation        = errors.New("db access violation")
	ErrNotAllowedNaN          = errors.New("NaN is not an allowed value for a secondary key")
	ErrIteratorExceedEnd      = errors.New("cannot increment end iterator")
	ErrIteratorExceedBegin    = errors.New("cannot decrement iterator at beginning")
	ErrNotInIndex             = errors.New("object passed to iterator_to is not in multi_index")
	ErrEndIteratorMisuse      = errors.New("cannot pass end iterator")
	ErrAutoincrementExhausted = errors.New("next primary key in table is at autoincrement limit")
	ErrPrimaryKeyImmutable    = errors.New("updater cannot change primary key when modifying an object")
	ErrSchemaMismatch         = errors.New("table schema mismatch")
	ErrInvalidKey             = errors.New("invalid secondary key")
	ErrNotFound               = errors.New("not found")
)

// Kinds lists the error kinds in a stable order.
var Kinds = []error{
	ErrDuplicatePrimaryKey,
	ErrAccessViolation,
	ErrNotAllowedNaN,
	ErrIteratorExceedEnd,
	ErrIteratorExceedBegin,
	ErrNotInIndex,
	ErrEndIteratorMisuse,
	ErrAutoincrementExhausted,
	ErrPrimaryKeyImmutable,
	ErrSchemaMismatch,
	ErrInvalidKey,
	ErrNotFound,
}

// KindOf returns the kind err belongs to, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range Kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// New creates an error with its own message that still matches kind.
func New(kind error, msg string) error {
	return errors.Mark(errors.NewWithDepth(1, msg), kind)
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), kind)
}

func IsConflictError(err error) (*ConflictError, bool) {
	var x *ConflictError
	if errors.As(err, &x) {
		return x, true
	}
	return nil, false
}

// ConflictError is returned when a primary key is stored twice.
type ConflictError struct {
	Table      string
	PrimaryKey uint64
}

func (a *ConflictError) Error() string {
	return fmt.Sprintf("could not insert object into %s, primary key %d already exists", a.Table, a.PrimaryKey)
}

func (a *ConflictError) Is(target error) bool {
	return target == ErrDuplicatePrimaryKey
}

func IsAccessViolationError(err error) (*AccessViolationError, bool) {
	var x *AccessViolationError
	if errors.As(err, &x) {
		return x, true
	}
	return nil, false
}

// AccessViolationError is returned when a requester other than the table owner
// tries to mutate the table.
type AccessViolationError struct {
	Table     string
	Owner     string
	Requester string
}

func (a *AccessViolationError) Error() string {
	return fmt.Sprintf("%s may not write to %s owned by %s: db access violation", a.Requester, a.Table, a.Owner)
}

func (a *AccessViolationError) Is(target error) bool {
	return target == ErrAccessViolation
}
