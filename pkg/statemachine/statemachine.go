package statemachine

import (
	"sync"
)

// StateFn represents a state function following Rob Pike's pattern. It does
// the state's work on the entity and returns the next state, or nil when the
// machine is finished.
type StateFn[T any] func(*T) StateFn[T]

// StateMachine is a simple, thread-safe state machine wrapper following Rob Pike's pattern
// State functions are the states themselves, and each returns the next state function
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mutex   sync.Mutex
}

// NewStateMachine creates a new state machine for the given entity
func NewStateMachine[T any](entity *T, initialStateFn StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initialStateFn,
	}
}

// Step runs the current state function once and moves to the state it
// returns. It reports whether the machine still has a state to run.
func (sm *StateMachine[T]) Step() bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.stateFn == nil {
		return false
	}
	sm.stateFn = sm.stateFn(sm.entity)
	return sm.stateFn != nil
}

// GetCurrentState returns the current state function (thread-safe)
func (sm *StateMachine[T]) GetCurrentState() StateFn[T] {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.stateFn
}

// Done reports whether the machine has reached its terminal state.
func (sm *StateMachine[T]) Done() bool {
	return sm.GetCurrentState() == nil
}

