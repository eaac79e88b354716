package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel failure classes a stage may report. The orchestrator never
// retries ErrInternal or ErrInputInvalid; ErrConstraintUnsatisfiable is
// terminal for the run.
var (
	ErrInputInvalid            = errors.New("input invalid")
	ErrConstraintUnsatisfiable = errors.New("constraint unsatisfiable")
	ErrInternal                = errors.New("internal error")
)

// Wrap builds an error message that includes stage context while
// tagging it with the provided classification marker. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stageName, operation, message string, err error) error {
	detail := buildDetail(stageName, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureClass names the classification of a stage error for reporting.
type FailureClass string

const (
	FailureInputInvalid            FailureClass = "input_invalid"
	FailureConstraintUnsatisfiable FailureClass = "constraint_unsatisfiable"
	FailureInternal                FailureClass = "internal_error"
)

// Classify maps a stage error onto its failure class. Unclassified
// errors (including timeouts) are internal errors.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrInputInvalid):
		return FailureInputInvalid
	case errors.Is(err, ErrConstraintUnsatisfiable):
		return FailureConstraintUnsatisfiable
	default:
		return FailureInternal
	}
}

func buildDetail(stageName, operation, message string) string {
	parts := make([]string, 0, 3)
	if stageName = strings.TrimSpace(stageName); stageName != "" {
		parts = append(parts, stageName)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
