package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the ledger's failure taxonomy
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrReservationExpired = errors.New("reservation expired or already released")
	ErrProductHasHolds    = errors.New("product still has active reservations")
)

// InsufficientStockError reports how many units are actually left so callers
// can surface an actionable message instead of a generic failure.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: only %d left (requested %d)",
		e.ProductID, e.Available, e.Requested)
}

// InvalidTransitionError reports a status edge outside the allowed table
type InvalidTransitionError struct {
	ProductID uuid.UUID
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for product %s: %s -> %s",
		e.ProductID, e.From, e.To)
}
