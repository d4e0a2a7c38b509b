package model

// OutcomeStatus is the result class of a single provider invocation.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeEmpty   OutcomeStatus = "empty"
	OutcomeFailure OutcomeStatus = "failure"
	// OutcomeSkipped means the provider has no credential configured.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the tri-state result of invoking one provider, plus Skipped.
type Outcome[T any] struct {
	Provider string
	Status   OutcomeStatus
	Records  []T
	Err      error
}

// Success builds a success outcome, or an empty one when records is empty.
func Success[T any](provider string, records []T) Outcome[T] {
	if len(records) == 0 {
		return Empty[T](provider)
	}
	return Outcome[T]{Provider: provider, Status: OutcomeSuccess, Records: records}
}

// Empty builds an empty outcome.
func Empty[T any](provider string) Outcome[T] {
	return Outcome[T]{Provider: provider, Status: OutcomeEmpty}
}

// Failure builds a failure outcome carrying the reason.
func Failure[T any](provider string, err error) Outcome[T] {
	return Outcome[T]{Provider: provider, Status: OutcomeFailure, Err: err}
}

// Skipped builds a skipped outcome for a disabled provider.
func Skipped[T any](provider string) Outcome[T] {
	return Outcome[T]{Provider: provider, Status: OutcomeSkipped}
}
