package bounce

// Status is the outcome of one dispatch call. Callers distinguish only
// "outcome durably recorded" from "not resolved, keep the message queued";
// no structured error crosses this boundary.
type Status int

const (
	// StatusRecorded means the outcome was durably recorded and the
	// recipient is handled for this delivery attempt
	StatusRecorded Status = iota

	// StatusDeferred means nothing final was recorded; the caller must
	// treat the message as still pending
	StatusDeferred
)

// Recorded reports whether the outcome was durably recorded
func (s Status) Recorded() bool {
	return s == StatusRecorded
}

// String returns the string representation of Status
func (s Status) String() string {
	if s == StatusRecorded {
		return "recorded"
	}
	return "deferred"
}
