package domain

import "fmt"

// DomainError marks numerically invalid input to the update engine:
// a prior outside the open interval (0,1), or NaN/Inf anywhere.
// It is fatal and never recovered locally.
type DomainError struct {
	Op     string
	Detail string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error in %s: %s", e.Op, e.Detail)
}

// ConfigurationError marks an invalid constraint set: an unknown
// strategy or rule name, or a threshold out of range. Raised at run
// start before any evidence is processed.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Detail)
}

// DataError marks malformed evidence or malformed assessor output.
// At the aggregation level it surfaces as a degraded record, not an
// aborted batch.
type DataError struct {
	Field  string
	Detail string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid data %q: %s", e.Field, e.Detail)
}

// AssessorError wraps a failed or timed-out external assessor call.
// The aggregation loop recovers it locally with neutral defaults.
type AssessorError struct {
	Stage   string // "quality" or "likelihood"
	Timeout bool
	Err     error
}

func (e *AssessorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s assessor timed out: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s assessor failed: %v", e.Stage, e.Err)
}

func (e *AssessorError) Unwrap() error { return e.Err }
