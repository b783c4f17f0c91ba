package bounce

import "time"

// Event is one recipient's delivery outcome for one message
type Event struct {
	ID       string    // queue id shared by message file, bounce log and trace record
	OrigRcpt string    // original envelope recipient, may be empty
	Rcpt     string    // recipient the message could not be delivered to
	Offset   int64     // queue file offset of the recipient record
	Relay    string    // destination host, used for logging only
	DSN      string    // RFC 3463 status code, e.g. "5.1.1"
	Entry    time.Time // message arrival time
}

// OneShot describes an immediate single-recipient notification. Delivery
// agents use it when the notification's return path depends on the
// recipient, so the outcome must not accumulate in the per-message log.
type OneShot struct {
	Queue    string // queue name of the original message file
	Encoding string // body content encoding: 7bit, 8bit or none
	Sender   string // sender envelope address
	Event
}
