package feed

import (
	"errors"
	"fmt"
)

var ErrUnknownSource = errors.New("source config not found")

// FetchError is a network, HTTP or parse failure for one source. The source
// is reported stale and the survey carries on.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d from %s", e.StatusCode, e.URL)
}
