package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachineAllowedEdges(t *testing.T) {
	sm := NewStateMachine()

	allowed := []struct{ from, to Status }{
		{StatusAvailable, StatusPreparing},
		{StatusAvailable, StatusUnavailable},
		{StatusUnavailable, StatusAvailable},
		{StatusPreparing, StatusShipped},
		{StatusShipped, StatusDelivered},
	}
	for _, edge := range allowed {
		assert.True(t, sm.CanTransition(edge.from, edge.to), "%s -> %s should be allowed", edge.from, edge.to)
	}
}

func TestStateMachineRejectsEverythingElse(t *testing.T) {
	sm := NewStateMachine()

	statuses := []Status{StatusAvailable, StatusUnavailable, StatusPreparing, StatusShipped, StatusDelivered}
	allowed := map[[2]Status]bool{
		{StatusAvailable, StatusPreparing}:   true,
		{StatusAvailable, StatusUnavailable}: true,
		{StatusUnavailable, StatusAvailable}: true,
		{StatusPreparing, StatusShipped}:     true,
		{StatusShipped, StatusDelivered}:     true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if allowed[[2]Status{from, to}] {
				continue
			}
			assert.False(t, sm.CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestStateMachineDeliveredIsTerminal(t *testing.T) {
	sm := NewStateMachine()
	assert.Empty(t, sm.AllowedTransitions(StatusDelivered))
}

func TestStateMachineUnknownStatus(t *testing.T) {
	sm := NewStateMachine()
	assert.False(t, sm.CanTransition(Status("recalled"), StatusAvailable))
	assert.Empty(t, sm.AllowedTransitions(Status("recalled")))
}
