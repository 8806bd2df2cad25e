package shared

import "slices"

// TransitionTable lists, for every status, the statuses it may move to.
// Statuses missing from the table are terminal.
type TransitionTable[S comparable] map[S][]S

// Allows reports whether from -> to is a legal transition
func (t TransitionTable[S]) Allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

// IsTerminal reports whether no transition leaves the status
func (t TransitionTable[S]) IsTerminal(s S) bool {
	return len(t[s]) == 0
}

// Check returns INVALID_STATE_TRANSITION unless from -> to is allowed
func (t TransitionTable[S]) Check(entity string, from, to S) error {
	if t.Allows(from, to) {
		return nil
	}
	return NewInvalidTransitionError(entity, from, to)
}
