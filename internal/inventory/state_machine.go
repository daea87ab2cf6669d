package inventory

// StateMachine enforces product status transitions
type StateMachine struct {
	allowedTransitions map[Status][]Status
}

// NewStateMachine creates a state machine with the allowed lifecycle edges.
// delivered is terminal; unavailable can only return to available.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[Status][]Status{
			StatusAvailable:   {StatusPreparing, StatusUnavailable},
			StatusUnavailable: {StatusAvailable},
			StatusPreparing:   {StatusShipped},
			StatusShipped:     {StatusDelivered},
			StatusDelivered:   {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to Status) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) AllowedTransitions(from Status) []Status {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []Status{}
	}
	return allowed
}
