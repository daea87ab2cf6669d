package reservations

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

// DefaultTTL bounds how long a cart may pin stock without checking out
const DefaultTTL = 15 * time.Minute

// LedgerClient is the slice of the inventory ledger the manager depends on
type LedgerClient interface {
	TryReserve(ctx context.Context, productID uuid.UUID, qty int, ttl time.Duration) (uuid.UUID, time.Time, error)
	Commit(ctx context.Context, token uuid.UUID) error
	Release(token uuid.UUID) bool
	ReleaseExpired(token uuid.UUID, now time.Time) bool
	Sweep(now time.Time) int
}

type holdKey struct {
	productID uuid.UUID
	holderID  string
}

// Manager tracks time-boxed claims so a shopper's cart reflects real
// availability without permanently committing stock until checkout.
type Manager struct {
	ledger LedgerClient
	logger *zap.Logger

	mu    sync.Mutex
	holds map[holdKey]*Hold
}

// NewManager creates a new reservation manager
func NewManager(ledger LedgerClient, logger *zap.Logger) *Manager {
	return &Manager{
		ledger: ledger,
		logger: logger,
		holds:  make(map[holdKey]*Hold),
	}
}

// Hold claims qty units for a holder. A repeat call for the same holder and
// product replaces the existing hold's quantity rather than stacking a second
// claim. All-or-nothing: no partial hold is created when qty exceeds
// availability.
func (m *Manager) Hold(ctx context.Context, productID uuid.UUID, holderID string, qty int, ttl time.Duration) (*Hold, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	key := holdKey{productID: productID, holderID: holderID}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.holds[key]
	if previous != nil {
		// Free the old claim first so an update to a smaller or equal
		// quantity always succeeds.
		m.ledger.Release(previous.Token)
		delete(m.holds, key)
	}

	token, expiresAt, err := m.ledger.TryReserve(ctx, productID, qty, ttl)
	if err != nil {
		if previous != nil {
			// Best-effort restore of the claim we just gave up.
			if tok, exp, restoreErr := m.ledger.TryReserve(ctx, productID, previous.Quantity, time.Until(previous.ExpiresAt)); restoreErr == nil {
				previous.Token = tok
				previous.ExpiresAt = exp
				m.holds[key] = previous
			}
		}
		return nil, err
	}

	hold := &Hold{
		Token:     token,
		ProductID: productID,
		HolderID:  holderID,
		Quantity:  qty,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.holds[key] = hold

	return hold, nil
}

// Release drops a holder's claim on one product (cart item removed)
func (m *Manager) Release(productID uuid.UUID, holderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := holdKey{productID: productID, holderID: holderID}
	hold, ok := m.holds[key]
	if !ok {
		return false
	}
	delete(m.holds, key)
	return m.ledger.Release(hold.Token)
}

// Finalize commits all of a holder's active holds at checkout. Failed
// products are reported individually so the caller can re-present them.
func (m *Manager) Finalize(ctx context.Context, holderID string) *CommitResult {
	m.mu.Lock()
	var keys []holdKey
	for key := range m.holds {
		if key.holderID == holderID {
			keys = append(keys, key)
		}
	}
	// Deterministic commit order keeps partial-failure reports stable.
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].productID.String() < keys[j].productID.String()
	})
	holds := make([]*Hold, 0, len(keys))
	for _, key := range keys {
		holds = append(holds, m.holds[key])
	}
	m.mu.Unlock()

	result := &CommitResult{}
	for _, hold := range holds {
		if err := m.ledger.Commit(ctx, hold.Token); err != nil {
			m.logger.Warn("Hold commit failed",
				zap.String("product_id", hold.ProductID.String()),
				zap.String("holder_id", holderID),
				zap.Error(err))
			result.Failed = append(result.Failed, CommitFailure{
				ProductID: hold.ProductID,
				Quantity:  hold.Quantity,
				Reason:    err.Error(),
			})
			// A store failure leaves the reservation active so a retry
			// can still commit it. The hold stays registered until the
			// holder retries, releases it, or the sweep reaps it at TTL.
			// An expired token is dead either way, so its hold goes.
			if !errors.Is(err, inventory.ErrReservationExpired) {
				continue
			}
		} else {
			result.Committed = append(result.Committed, CommitItem{
				ProductID: hold.ProductID,
				Quantity:  hold.Quantity,
			})
		}

		m.mu.Lock()
		delete(m.holds, holdKey{productID: hold.ProductID, holderID: holderID})
		m.mu.Unlock()
	}

	return result
}

// SweepExpired releases holds past their expiry, returning how many were
// freed. Invoked on a timer, never from request handling.
func (m *Manager) SweepExpired(now time.Time) int {
	m.mu.Lock()
	var expired []*Hold
	for _, hold := range m.holds {
		if now.After(hold.ExpiresAt) {
			expired = append(expired, hold)
		}
	}
	m.mu.Unlock()

	released := 0
	for _, hold := range expired {
		// ReleaseExpired re-checks the TTL under the product lock, so a
		// commit racing the sweep can never be double-applied.
		if m.ledger.ReleaseExpired(hold.Token, now) {
			released++
		}
		m.mu.Lock()
		delete(m.holds, holdKey{productID: hold.ProductID, holderID: hold.HolderID})
		m.mu.Unlock()
	}

	// Reap any expired ledger reservation no hold points at anymore, and let
	// the ledger drop settled entries whose TTL has lapsed.
	released += m.ledger.Sweep(now)

	return released
}

// Holds returns a snapshot of a holder's active cart claims
func (m *Manager) Holds(holderID string) []*Hold {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Hold
	for key, hold := range m.holds {
		if key.holderID == holderID {
			copied := *hold
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}
