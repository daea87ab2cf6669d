package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TrackingIDGenerator issues the immutable tracking identifier assigned to a
// product at creation. Implemented by the tracking package.
type TrackingIDGenerator interface {
	NextTrackingID(ctx context.Context) (string, error)
}

// EventPublisher receives best-effort availability notifications after a
// successful mutation. Implemented by the notifications hub.
type EventPublisher interface {
	PublishAvailability(productID uuid.UUID, available int)
	PublishStatus(productID uuid.UUID, status Status)
}

type reservationState int

const (
	reservationActive reservationState = iota
	reservationCommitted
	reservationReleased
)

// reservation is the ledger's in-memory claim against a product's quantity.
// Claims are ephemeral: they never outlive the process or their TTL.
type reservation struct {
	token     uuid.UUID
	productID uuid.UUID
	qty       int
	createdAt time.Time
	expiresAt time.Time
	state     reservationState
}

// Ledger is the single source of truth for product quantity and status. All
// mutations for one product are serialized behind a per-product lock;
// different products proceed in parallel.
type Ledger struct {
	repo    Repository
	machine *StateMachine
	tracker TrackingIDGenerator
	events  EventPublisher
	logger  *zap.Logger

	mu           sync.Mutex
	productLocks map[uuid.UUID]*sync.Mutex
	reservations map[uuid.UUID]*reservation
	byProduct    map[uuid.UUID]map[uuid.UUID]*reservation
}

// NewLedger creates the inventory ledger
func NewLedger(repo Repository, tracker TrackingIDGenerator, events EventPublisher, logger *zap.Logger) *Ledger {
	return &Ledger{
		repo:         repo,
		machine:      NewStateMachine(),
		tracker:      tracker,
		events:       events,
		logger:       logger,
		productLocks: make(map[uuid.UUID]*sync.Mutex),
		reservations: make(map[uuid.UUID]*reservation),
		byProduct:    make(map[uuid.UUID]map[uuid.UUID]*reservation),
	}
}

func (l *Ledger) productLock(productID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.productLocks[productID]
	if !ok {
		lock = &sync.Mutex{}
		l.productLocks[productID] = lock
	}
	return lock
}

func (l *Ledger) activeReserved(productID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, res := range l.byProduct[productID] {
		total += res.qty
	}
	return total
}

func (l *Ledger) register(res *reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reservations[res.token] = res
	if l.byProduct[res.productID] == nil {
		l.byProduct[res.productID] = make(map[uuid.UUID]*reservation)
	}
	l.byProduct[res.productID][res.token] = res
}

func (l *Ledger) deactivate(res *reservation, state reservationState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res.state = state
	delete(l.byProduct[res.productID], res.token)
}

func (l *Ledger) lookup(token uuid.UUID) (*reservation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res, ok := l.reservations[token]
	return res, ok
}

// CreateProduct registers a new product with its immutable fields, an
// assigned tracking id and an initial "available" history entry.
func (l *Ledger) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}

	trackingID, err := l.tracker.NextTrackingID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assign tracking id: %w", err)
	}

	now := time.Now()
	product := &Product{
		ID:                uuid.New(),
		FarmerID:          req.FarmerID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		Price:             price,
		UnitMeasure:       req.UnitMeasure,
		UnitWeightKg:      req.UnitWeightKg,
		Quantity:          req.Quantity,
		Status:            StatusAvailable,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Address:           req.Address,
		HarvestDate:       req.HarvestDate,
		TrackingID:        trackingID,
		CertificationRefs: req.CertificationRefs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := l.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	initial := &StatusTransition{
		ProductID: product.ID,
		Status:    StatusAvailable,
		ActorID:   req.FarmerID.String(),
		Note:      "product listed",
		Timestamp: now,
	}
	if err := l.repo.UpdateStatus(ctx, initial); err != nil {
		return nil, fmt.Errorf("failed to record initial status: %w", err)
	}

	l.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("tracking_id", trackingID))

	return product, nil
}

// TryReserve claims qty units against a product's remaining availability.
// Exactly one of two racing callers can claim the last unit, never both.
func (l *Ledger) TryReserve(ctx context.Context, productID uuid.UUID, qty int, ttl time.Duration) (uuid.UUID, time.Time, error) {
	if qty <= 0 {
		return uuid.Nil, time.Time{}, fmt.Errorf("reservation quantity must be positive, got %d", qty)
	}

	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	available := product.Quantity - l.activeReserved(productID)
	if product.Status != StatusAvailable {
		available = 0
	}
	if qty > available {
		return uuid.Nil, time.Time{}, &InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: available,
		}
	}

	now := time.Now()
	res := &reservation{
		token:     uuid.New(),
		productID: productID,
		qty:       qty,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	l.register(res)

	return res.token, res.expiresAt, nil
}

// Commit converts a live reservation into a permanent quantity decrement.
// Idempotent: committing the same token twice is a no-op success.
func (l *Ledger) Commit(ctx context.Context, token uuid.UUID) error {
	res, ok := l.lookup(token)
	if !ok {
		return ErrReservationExpired
	}

	lock := l.productLock(res.productID)
	lock.Lock()
	defer lock.Unlock()

	switch res.state {
	case reservationCommitted:
		return nil
	case reservationReleased:
		return ErrReservationExpired
	}

	if time.Now().After(res.expiresAt) {
		l.deactivate(res, reservationReleased)
		return ErrReservationExpired
	}

	// The reservation stays active if the store write fails, so a retry can
	// still commit it before the TTL runs out.
	if err := l.repo.DecrementQuantity(ctx, res.productID, res.qty); err != nil {
		return err
	}
	l.deactivate(res, reservationCommitted)

	l.publishAvailability(ctx, res.productID)
	return nil
}

// Release cancels a reservation early, freeing capacity immediately. It
// reports whether an active reservation was actually released.
func (l *Ledger) Release(token uuid.UUID) bool {
	res, ok := l.lookup(token)
	if !ok {
		return false
	}

	lock := l.productLock(res.productID)
	lock.Lock()
	defer lock.Unlock()

	if res.state != reservationActive {
		return false
	}
	l.deactivate(res, reservationReleased)
	return true
}

// ReleaseExpired releases the token only if its TTL has elapsed. Used by the
// sweeper so it cannot race a commit into double-applying.
func (l *Ledger) ReleaseExpired(token uuid.UUID, now time.Time) bool {
	res, ok := l.lookup(token)
	if !ok {
		return false
	}

	lock := l.productLock(res.productID)
	lock.Lock()
	defer lock.Unlock()

	if res.state != reservationActive || now.Before(res.expiresAt) {
		return false
	}
	l.deactivate(res, reservationReleased)
	return true
}

// Sweep releases every reservation past its TTL and purges settled entries
// once their TTL has lapsed. Committed tokens stay resolvable until then so
// a retried Commit remains an idempotent no-op. Returns how many active
// reservations were released.
func (l *Ledger) Sweep(now time.Time) int {
	l.mu.Lock()
	var expired []uuid.UUID
	for token, res := range l.reservations {
		if res.state == reservationActive && now.After(res.expiresAt) {
			expired = append(expired, token)
		}
	}
	l.mu.Unlock()

	released := 0
	for _, token := range expired {
		if l.ReleaseExpired(token, now) {
			released++
		}
	}

	l.mu.Lock()
	for token, res := range l.reservations {
		if res.state != reservationActive && now.After(res.expiresAt) {
			delete(l.reservations, token)
		}
	}
	l.mu.Unlock()

	return released
}

// TransitionStatus validates a lifecycle edge, applies it and appends the
// transition to the product's history. History is never rewritten.
func (l *Ledger) TransitionStatus(ctx context.Context, productID uuid.UUID, newStatus Status, actorID, note string) error {
	if !newStatus.Valid() {
		return &InvalidTransitionError{ProductID: productID, To: newStatus}
	}

	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if !l.machine.CanTransition(product.Status, newStatus) {
		return &InvalidTransitionError{ProductID: productID, From: product.Status, To: newStatus}
	}

	transition := &StatusTransition{
		ProductID: productID,
		Status:    newStatus,
		ActorID:   actorID,
		Note:      note,
		Timestamp: time.Now(),
	}
	if err := l.repo.UpdateStatus(ctx, transition); err != nil {
		return err
	}

	l.logger.Info("Product status changed",
		zap.String("product_id", productID.String()),
		zap.String("from", string(product.Status)),
		zap.String("to", string(newStatus)),
		zap.String("actor_id", actorID))

	if l.events != nil {
		l.events.PublishStatus(productID, newStatus)
	}
	return nil
}

// Restock increases a product's quantity. Only meaningful while the product
// is listed, so it is rejected once fulfilment has started.
func (l *Ledger) Restock(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("restock delta must be positive, got %d", delta)
	}

	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.Status != StatusAvailable && product.Status != StatusUnavailable {
		return &InvalidTransitionError{ProductID: productID, From: product.Status, To: product.Status}
	}

	if err := l.repo.IncrementQuantity(ctx, productID, delta); err != nil {
		return err
	}

	l.publishAvailability(ctx, productID)
	return nil
}

// DeleteProduct removes a product once no reservation references it.
func (l *Ledger) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	if l.activeReserved(productID) > 0 {
		return ErrProductHasHolds
	}

	if err := l.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	// The product is gone and holds no reservations, so its lock entry and
	// index bucket can go too. A goroutine already waiting on the lock will
	// only observe ErrProductNotFound from the store.
	l.mu.Lock()
	delete(l.productLocks, productID)
	delete(l.byProduct, productID)
	l.mu.Unlock()

	return nil
}

// GetProduct loads one product by id
func (l *Ledger) GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error) {
	return l.repo.GetProduct(ctx, productID)
}

// AvailableQuantity returns the sellable count after subtracting active holds
func (l *Ledger) AvailableQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.Quantity - l.activeReserved(productID), nil
}

// History returns the product's append-only status log in apply order
func (l *Ledger) History(ctx context.Context, productID uuid.UUID) ([]StatusTransition, error) {
	return l.repo.GetStatusHistory(ctx, productID)
}

func (l *Ledger) publishAvailability(ctx context.Context, productID uuid.UUID) {
	if l.events == nil {
		return
	}
	product, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		l.logger.Warn("Failed to load product for availability event",
			zap.String("product_id", productID.String()), zap.Error(err))
		return
	}
	l.events.PublishAvailability(productID, product.Quantity-l.activeReserved(productID))
}
