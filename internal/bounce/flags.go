package bounce

// Flags select the dispatch path and the error handling for one event.
// The zero value is a normal delivery outcome.
type Flags int

const (
	// FlagCleanOnError suppresses the defer fallback: on any recording
	// failure, fail directly and leave no partial log behind
	FlagCleanOnError Flags = 1 << iota

	// FlagVerify marks an address verification probe; its outcome goes
	// to the verification store, never to bounce or defer logs
	FlagVerify

	// FlagExpand marks a user-requested address expansion probe; its
	// outcome goes to the trace store, never to bounce or defer logs
	FlagExpand

	// FlagRecord mirrors the outcome into a sender-requested delivery
	// record in addition to the primary action
	FlagRecord
)

// Has reports whether any flag in mask is set
func (f Flags) Has(mask Flags) bool {
	return f&mask != 0
}
