package poller

import "time"

// ErrorKind classifies why a poll did not succeed. It rides on the result
// so the workflow can route to the failure branch without inspecting error
// strings.
type ErrorKind string

const (
	ErrKindNone               ErrorKind = ""
	ErrKindSecretNotFound     ErrorKind = "SecretNotFound"
	ErrKindSecretFieldMissing ErrorKind = "SecretFieldMissing"
	ErrKindSecretFormat       ErrorKind = "SecretFormatError"
	ErrKindTransientHTTP      ErrorKind = "TransientHttpError"
	ErrKindPermanentHTTP      ErrorKind = "PermanentHttpError"
	ErrKindTimeout            ErrorKind = "Timeout"
	ErrKindConnection         ErrorKind = "ConnectionError"
	ErrKindCancelled          ErrorKind = "Cancelled"
)

// Attempt is one sanitized attempt record. It never contains credential
// values or raw auth headers; Error text is scrubbed before recording.
type Attempt struct {
	Number         int       `json:"attempt"`
	Status         int       `json:"status,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	DurationMillis int64     `json:"duration_ms"`
}

// Result is the structured outcome of one poll. The poller never raises an
// uncaught fault to its caller: every failure mode is folded into OK=false
// with ErrorKind set.
type Result struct {
	OK            bool      `json:"ok"`
	Status        int       `json:"status,omitempty"`
	Body          string    `json:"body,omitempty"`
	BodyTruncated bool      `json:"body_truncated,omitempty"`
	ElapsedMillis int64     `json:"elapsed_ms"`
	AttemptCount  int       `json:"attempts"`
	Attempts      []Attempt `json:"attempt_log,omitempty"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Cancelled reports whether the poll ended because the surrounding
// execution was cancelled. Cancellation is a distinct terminal outcome:
// neither the success nor the failure branch may run for it.
func (r *Result) Cancelled() bool {
	return r.ErrorKind == ErrKindCancelled
}
