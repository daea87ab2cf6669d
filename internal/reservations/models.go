package reservations

import (
	"time"

	"github.com/google/uuid"
)

// Hold is a shopper's time-boxed claim against a product's availability.
// Holds are ephemeral and never persisted beyond their TTL.
type Hold struct {
	Token     uuid.UUID `json:"token"`
	ProductID uuid.UUID `json:"product_id"`
	HolderID  string    `json:"holder_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CommitItem is one successfully committed line of a finalize call
type CommitItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CommitFailure names a product whose hold could not be committed. The
// caller must re-present these items to the shopper, never drop them.
type CommitFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// CommitResult reports finalize outcomes per product
type CommitResult struct {
	Committed []CommitItem    `json:"committed"`
	Failed    []CommitFailure `json:"failed"`
}

// Ok reports whether every hold committed
func (r *CommitResult) Ok() bool {
	return len(r.Failed) == 0
}

// HoldRequest is the body of POST /products/:id/reserve
type HoldRequest struct {
	HolderID   string `json:"holder_id" binding:"required"`
	Quantity   int    `json:"qty" binding:"required,min=1"`
	TTLSeconds int    `json:"ttl_seconds"`
}
