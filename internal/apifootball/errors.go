package apifootball

import "fmt"

// TransientError marks a failure worth retrying: timeouts, connection
// problems, 5xx responses and rate limiting. The client retries these with
// exponential backoff; the final attempt's error is returned wrapped.
type TransientError struct {
	Status int // 0 when the failure happened before a response arrived
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient upstream failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient upstream failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// UpstreamError marks a non-retryable response: a 4xx other than 429, or an
// error object inside a 200 envelope. The current fetch is aborted
// immediately; callers decide whether the run can continue with partial data.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}
