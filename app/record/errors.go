package record

import "fmt"

// NormalizationError marks a raw item that could not become a Record.
// The item is dropped; the run continues.
type NormalizationError struct {
	Source string
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize item from %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize item from %s: %s", e.Source, e.Reason)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
