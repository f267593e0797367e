package conversation

// State is a step of the completion exchange for one pending request.
type State string

const (
	StateDrafting         State = "drafting"
	StateAwaitingProvider State = "awaiting_provider"
	StateRateLimited      State = "rate_limited"
	StateTransientError   State = "transient_error"
	StateDelivered        State = "delivered"
	StateDeliveredSplit   State = "delivered_split"
	StateFatal            State = "fatal"
)

// Terminal reports whether no further attempt follows s.
func (s State) Terminal() bool {
	switch s {
	case StateDelivered, StateDeliveredSplit, StateFatal:
		return true
	default:
		return false
	}
}

// Outcome summarizes a finished exchange.
type Outcome struct {
	RequestID string
	State     State
	Attempts  int
	// Text is what the placeholder shows last.
	Text string
}
