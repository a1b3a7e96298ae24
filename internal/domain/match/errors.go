package match

import (
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrFetch     = crerr.New("match report fetch failed")
	ErrParse     = crerr.New("match report parse failed")
	ErrReconcile = crerr.New("match report reconcile failed")
)

// FetchError means the raw document could not be obtained.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ParseError means the document lacks a mandatory element or yields an
// empty identifier.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ReconcileError means the store rejected the record; the transaction was
// rolled back.
type ReconcileError struct {
	Source string
	GameID string
	Err    error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s (game %s): %v", e.Source, e.GameID, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

func (e *ReconcileError) Is(target error) bool { return target == ErrReconcile }

// NewParseError wraps cause with a reason. cause may be nil.
func NewParseError(source, reason string, cause error) error {
	return &ParseError{Source: source, Reason: reason, Err: cause}
}

// Stage names the pipeline step an error belongs to.
func Stage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return StageFetch
	case errors.Is(err, ErrParse):
		return StageParse
	case errors.Is(err, ErrReconcile):
		return StageReconcile
	default:
		return StageUnknown
	}
}

const (
	StageFetch     = "fetch"
	StageParse     = "parse"
	StageReconcile = "reconcile"
	StageUnknown   = "unknown"
)
