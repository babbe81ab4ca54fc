package domain

import (
	"fmt"
	"strings"
)

// EndState is the terminal state of a single trial.
type EndState string

// End state constants
const (
	EndStateBusted     EndState = "Busted"
	EndStateTimedOut   EndState = "TimedOut"
	EndStateMaxPayouts EndState = "MaxPayoutsReached"
)

// AllEndStates lists every terminal state in reporting order.
var AllEndStates = []EndState{EndStateBusted, EndStateTimedOut, EndStateMaxPayouts}

// EndStateFilterAll selects every trial regardless of end state.
const EndStateFilterAll = "all"

// ParseEndStateFilter resolves a condition string to an end state.
// Returns nil for "all" (or empty). Unknown strings also resolve to nil
// and produce a non-empty warning; callers surface it rather than failing.
func ParseEndStateFilter(s string) (*EndState, string) {
	var state EndState
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", EndStateFilterAll:
		return nil, ""
	case "busted":
		state = EndStateBusted
	case "timeout", "timedout":
		state = EndStateTimedOut
	case "maxpayouts", "maxpayoutsreached":
		state = EndStateMaxPayouts
	default:
		return nil, fmt.Sprintf("invalid end state condition %q, using aggregate data", s)
	}
	return &state, ""
}
