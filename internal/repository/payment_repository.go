package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/juanketo/BBMApp-sub000/internal/models"
)

const paymentColumns = "id, student_name, franchise, price_base_id, selection_type, selection, timing, include_enrollment, base_amount, discount, final_amount, description, breakdown, lines, created_by, created_at"

// PaymentRepository persists calculated payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new repository instance.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment record.
func (r *PaymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO payments (id, student_name, franchise, price_base_id, selection_type, selection, timing, include_enrollment, base_amount, discount, final_amount, description, breakdown, lines, created_by, created_at)
VALUES (:id, :student_name, :franchise, :price_base_id, :selection_type, :selection, :timing, :include_enrollment, :base_amount, :discount, :final_amount, :description, :breakdown, :lines, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a payment record or sql.ErrNoRows.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var record models.PaymentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &record, nil
}

// List returns payment records matching filters with the total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, int, error) {
	base := "FROM payments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(student_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.StudentName)+"%")
	}
	if filter.Franchise != "" {
		conditions = append(conditions, fmt.Sprintf("franchise = $%d", len(args)+1))
		args = append(args, filter.Franchise)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", paymentColumns, base, size, offset)
	var records []models.PaymentRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	return records, total, nil
}
