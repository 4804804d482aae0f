package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/juanketo/BBMApp-sub000/internal/models"
)

const (
	priceBaseColumns  = "id, name, price, active, created_at, updated_at"
	membershipColumns = "id, name, months_paid, months_saved, created_at, updated_at"
)

// PricingRepository reads and maintains price bases and memberships.
type PricingRepository struct {
	db *sqlx.DB
}

// NewPricingRepository creates a new repository instance.
func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// GetAllPriceBases returns every price base ordered by name.
func (r *PricingRepository) GetAllPriceBases(ctx context.Context) ([]models.PriceBase, error) {
	query := fmt.Sprintf("SELECT %s FROM price_bases ORDER BY name ASC", priceBaseColumns)
	var items []models.PriceBase
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list price bases: %w", err)
	}
	return items, nil
}

// GetPriceBaseByID returns a price base or sql.ErrNoRows.
func (r *PricingRepository) GetPriceBaseByID(ctx context.Context, id string) (*models.PriceBase, error) {
	query := fmt.Sprintf("SELECT %s FROM price_bases WHERE id = $1", priceBaseColumns)
	var item models.PriceBase
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find price base: %w", err)
	}
	return &item, nil
}

// PriceBaseNameExists checks uniqueness of a price base name.
func (r *PricingRepository) PriceBaseNameExists(ctx context.Context, name, excludeID string) (bool, error) {
	return r.nameExists(ctx, "price_bases", name, excludeID)
}

// CreatePriceBase persists a new price base.
func (r *PricingRepository) CreatePriceBase(ctx context.Context, item *models.PriceBase) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO price_bases (id, name, price, active, created_at, updated_at) VALUES (:id, :name, :price, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create price base: %w", err)
	}
	return nil
}

// UpdatePriceBase modifies a price base.
func (r *PricingRepository) UpdatePriceBase(ctx context.Context, item *models.PriceBase) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE price_bases SET name = :name, price = :price, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update price base: %w", err)
	}
	return nil
}

// UpsertPriceBase inserts or replaces a price base keyed by id.
func (r *PricingRepository) UpsertPriceBase(ctx context.Context, item *models.PriceBase) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO price_bases (id, name, price, active, created_at, updated_at) VALUES (:id, :name, :price, :active, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("upsert price base: %w", err)
	}
	return nil
}

// DeletePriceBase removes a price base record.
func (r *PricingRepository) DeletePriceBase(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM price_bases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete price base: %w", err)
	}
	return nil
}

// CountPaymentsByPriceBase returns number of ledger entries referencing the price base.
func (r *PricingRepository) CountPaymentsByPriceBase(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments WHERE price_base_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count payments by price base: %w", err)
	}
	return count, nil
}

// GetAllMemberships returns every membership ordered by months paid.
func (r *PricingRepository) GetAllMemberships(ctx context.Context) ([]models.Membership, error) {
	query := fmt.Sprintf("SELECT %s FROM memberships ORDER BY months_paid ASC, name ASC", membershipColumns)
	var items []models.Membership
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return items, nil
}

// GetMembershipByID returns a membership or sql.ErrNoRows.
func (r *PricingRepository) GetMembershipByID(ctx context.Context, id string) (*models.Membership, error) {
	query := fmt.Sprintf("SELECT %s FROM memberships WHERE id = $1", membershipColumns)
	var item models.Membership
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &item, nil
}

// MembershipNameExists checks uniqueness of a membership name.
func (r *PricingRepository) MembershipNameExists(ctx context.Context, name, excludeID string) (bool, error) {
	return r.nameExists(ctx, "memberships", name, excludeID)
}

// CreateMembership persists a new membership.
func (r *PricingRepository) CreateMembership(ctx context.Context, item *models.Membership) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO memberships (id, name, months_paid, months_saved, created_at, updated_at) VALUES (:id, :name, :months_paid, :months_saved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// UpdateMembership modifies a membership.
func (r *PricingRepository) UpdateMembership(ctx context.Context, item *models.Membership) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE memberships SET name = :name, months_paid = :months_paid, months_saved = :months_saved, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return nil
}

// UpsertMembership inserts or replaces a membership keyed by id.
func (r *PricingRepository) UpsertMembership(ctx context.Context, item *models.Membership) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO memberships (id, name, months_paid, months_saved, created_at, updated_at) VALUES (:id, :name, :months_paid, :months_saved, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, months_paid = EXCLUDED.months_paid, months_saved = EXCLUDED.months_saved, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

// DeleteMembership removes a membership record.
func (r *PricingRepository) DeleteMembership(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (r *PricingRepository) nameExists(ctx context.Context, table, name, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE LOWER(name) = LOWER($1)", table)
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s name: %w", table, err)
	}
	return true, nil
}
