package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ProductFilters narrows catalog listings. Free-text search and the price
// range are applied in SQL, upstream of any geo filtering.
type ProductFilters struct {
	Category      string
	Subcategory   string
	CertifiedOnly bool
	FarmerID      *uuid.UUID
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Search        string
	Statuses      []Status
	Limit         int
	Offset        int
}

// Repository defines the interface for product data access
type Repository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductByTrackingID(ctx context.Context, trackingID string) (*Product, error)
	ListProducts(ctx context.Context, filters *ProductFilters) ([]*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// Quantity mutations are conditional in SQL so the database enforces the
	// non-negative invariant even if a second ledger instance runs.
	DecrementQuantity(ctx context.Context, id uuid.UUID, qty int) error
	IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) error

	// UpdateStatus appends a history entry and moves the product's status in
	// one transaction.
	UpdateStatus(ctx context.Context, transition *StatusTransition) error
	GetStatusHistory(ctx context.Context, productID uuid.UUID) ([]StatusTransition, error)

	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (
			id, farmer_id, name, description, category, subcategory, price,
			unit_measure, unit_weight_kg, quantity, status, rating,
			latitude, longitude, address, harvest_date, tracking_id,
			certification_refs, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.FarmerID, product.Name, product.Description,
		product.Category, product.Subcategory, product.Price,
		product.UnitMeasure, product.UnitWeightKg, product.Quantity, product.Status,
		product.Rating, product.Latitude, product.Longitude, product.Address,
		product.HarvestDate, product.TrackingID, product.CertificationRefs,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	query := `SELECT * FROM products WHERE id = $1`

	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (r *PostgresRepository) GetProductByTrackingID(ctx context.Context, trackingID string) (*Product, error) {
	var product Product
	query := `SELECT * FROM products WHERE tracking_id = $1`

	if err := r.db.GetContext(ctx, &product, query, trackingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by tracking id: %w", err)
	}

	return &product, nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, filters *ProductFilters) ([]*Product, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argCount := 0

	addArg := func(clause string, value interface{}) {
		argCount++
		conditions = append(conditions, fmt.Sprintf(clause, argCount))
		args = append(args, value)
	}

	if filters.Category != "" {
		addArg("category = $%d", filters.Category)
	}
	if filters.Subcategory != "" {
		addArg("subcategory = $%d", filters.Subcategory)
	}
	if filters.FarmerID != nil {
		addArg("farmer_id = $%d", *filters.FarmerID)
	}
	if filters.MinPrice != nil {
		addArg("price >= $%d", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		addArg("price <= $%d", *filters.MaxPrice)
	}
	if filters.Search != "" {
		addArg("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filters.Search+"%")
	}
	if filters.CertifiedOnly {
		conditions = append(conditions, "cardinality(certification_refs) > 0")
	}
	if len(filters.Statuses) > 0 {
		placeholders := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			argCount++
			placeholders[i] = fmt.Sprintf("$%d", argCount)
			args = append(args, s)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	query := fmt.Sprintf(`
		SELECT * FROM products
		WHERE %s
		ORDER BY created_at DESC, id
	`, strings.Join(conditions, " AND "))

	if filters.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filters.Limit)
	}
	if filters.Offset > 0 {
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filters.Offset)
	}

	products := []*Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresRepository) DecrementQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity = quantity - $2, updated_at = $3
		WHERE id = $1 AND quantity >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, qty, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement quantity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		// Either the product is gone or the conditional guard refused the
		// decrement; disambiguate for the caller.
		product, err := r.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: id, Requested: qty, Available: product.Quantity}
	}

	return nil
}

func (r *PostgresRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE products
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, delta, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment quantity: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, transition *StatusTransition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`,
		transition.ProductID, transition.Status, transition.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrProductNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_status_history (product_id, status, actor_id, note, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, transition.ProductID, transition.Status, transition.ActorID, transition.Note, transition.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetStatusHistory(ctx context.Context, productID uuid.UUID) ([]StatusTransition, error) {
	history := []StatusTransition{}
	query := `
		SELECT id, product_id, status, actor_id, note, timestamp
		FROM product_status_history
		WHERE product_id = $1
		ORDER BY timestamp, id
	`

	if err := r.db.SelectContext(ctx, &history, query, productID); err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	return history, nil
}

func (r *PostgresRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE tracking_id = $1)`

	if err := r.db.GetContext(ctx, &exists, query, trackingID); err != nil {
		return false, fmt.Errorf("failed to check tracking id: %w", err)
	}

	return exists, nil
}
