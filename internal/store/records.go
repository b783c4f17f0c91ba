package store

import "time"

// VerifyStatus represents the recipient disposition recorded with the
// address verification service
type VerifyStatus int

const (
	VerifyOK VerifyStatus = iota
	VerifyDefer
	VerifyBounce
)

// VerifyRecord is one probe outcome for the address verification service
type VerifyRecord struct {
	ID          string
	OrigRcpt    string
	Rcpt        string
	Relay       string
	DSN         string
	Entry       time.Time
	How         string // classification tag, e.g. "undeliverable"
	Disposition VerifyStatus
	Reason      string
}

// TraceRecord is one delivery record for the trace service, used both for
// expansion probes and for sender-requested delivery records
type TraceRecord struct {
	Flags    int
	ID       string
	OrigRcpt string
	Rcpt     string
	Relay    string
	DSN      string
	Entry    time.Time
	Action   string
	Reason   string
}

// LogRecord is one recipient entry appended to the per-message bounce log
type LogRecord struct {
	Flags    int
	ID       string
	OrigRcpt string
	Rcpt     string
	Offset   int64
	DSN      string
	Action   string
	Reason   string
}

// FlushRequest asks the bounce service to render the accumulated log for
// a message and deliver it to the sender
type FlushRequest struct {
	Flags    int
	Queue    string
	ID       string
	Encoding string
	Sender   string
}

// DeferRecord is one recipient entry for the defer log, used as the
// fallback when the primary recording service fails
type DeferRecord struct {
	Flags    int
	ID       string
	OrigRcpt string
	Rcpt     string
	Offset   int64
	Relay    string
	DSN      string
	Entry    time.Time
	Reason   string
}

// Notice asks the bounce service to notify the sender about a single
// recipient immediately, bypassing the per-message log
type Notice struct {
	Flags    int
	Queue    string
	ID       string
	Encoding string
	Sender   string
	OrigRcpt string
	Rcpt     string
	Offset   int64
	Relay    string
	DSN      string
	Entry    time.Time
	Action   string
	Reason   string
}
