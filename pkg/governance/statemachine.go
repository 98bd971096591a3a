package governance

import "fmt"

// transitions lists the forward edges of the proposal lifecycle:
// PENDING -> ACTIVE -> {SUCCEEDED | DEFEATED} -> QUEUED -> EXECUTED,
// with CANCELED reachable from PENDING, ACTIVE and QUEUED.
var transitions = map[ProposalState][]ProposalState{
	StatePending:   {StateActive, StateCanceled},
	StateActive:    {StateSucceeded, StateDefeated, StateCanceled},
	StateSucceeded: {StateQueued},
	StateQueued:    {StateExecuted, StateCanceled},
	StateDefeated:  {},
	StateExecuted:  {},
	StateCanceled:  {},
}

// CanTransition reports whether a proposal may move from one state to another
func CanTransition(from, to ProposalState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from the state
func Terminal(state ProposalState) bool {
	return len(transitions[state]) == 0
}

// Transition validates and returns the new state, or an error naming the
// rejected edge.
func Transition(from, to ProposalState) (ProposalState, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("invalid proposal transition %s -> %s", from, to)
	}
	return to, nil
}

// Governor state enum as exposed by the contract's state() view.
const (
	chainPending uint8 = iota
	chainActive
	chainCanceled
	chainDefeated
	chainSucceeded
	chainQueued
	chainExpired
	chainExecuted
)

// StateFromChain maps the numeric Governor enum onto the mirror states.
// The contract's Expired state (queued but past the timelock grace
// period) has no mirror equivalent and is folded into CANCELED.
func StateFromChain(state uint8) (ProposalState, error) {
	switch state {
	case chainPending:
		return StatePending, nil
	case chainActive:
		return StateActive, nil
	case chainCanceled, chainExpired:
		return StateCanceled, nil
	case chainDefeated:
		return StateDefeated, nil
	case chainSucceeded:
		return StateSucceeded, nil
	case chainQueued:
		return StateQueued, nil
	case chainExecuted:
		return StateExecuted, nil
	default:
		return "", fmt.Errorf("unknown governor state %d", state)
	}
}
