package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, record *models.PaymentRecord) error
	FindByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, int, error)
}

// RecordPaymentInput describes a payment to price and persist.
type RecordPaymentInput struct {
	StudentName string
	Franchise   string
	PriceBaseID string
	Selection   models.PaymentSelection
	Options     CalculateOptions
}

// PaymentService quotes payments and keeps the payment ledger.
type PaymentService struct {
	calculator *PaymentCalculator
	repo       paymentRepository
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPaymentService constructs a payment service.
func NewPaymentService(calculator *PaymentCalculator, repo paymentRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{calculator: calculator, repo: repo, metrics: metrics, validator: validate, logger: logger}
}

// Calculate validates a quote request and prices it.
func (s *PaymentService) Calculate(ctx context.Context, req dto.CalculatePaymentRequest) (*models.PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	selection, opts, err := calculationFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.Quote(ctx, selection, req.PriceBaseID, opts)
}

// Create validates a record request and appends it to the ledger.
func (s *PaymentService) Create(ctx context.Context, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	selection, opts, err := calculationFromRequest(req.CalculatePaymentRequest)
	if err != nil {
		return nil, err
	}
	return s.Record(ctx, RecordPaymentInput{
		StudentName: req.StudentName,
		Franchise:   req.Franchise,
		PriceBaseID: req.PriceBaseID,
		Selection:   selection,
		Options:     opts,
	}, actor)
}

// CurrentBasePrice returns the price of a price base.
func (s *PaymentService) CurrentBasePrice(ctx context.Context, priceBaseID string) (*dto.PriceBaseQuote, error) {
	price, err := s.calculator.GetCurrentBasePrice(ctx, priceBaseID)
	if err != nil {
		return nil, err
	}
	return &dto.PriceBaseQuote{
		PriceBaseID: priceBaseID,
		Price:       price,
		Formatted:   s.calculator.Formatter().Format(price),
	}, nil
}

// Quote prices a selection without persisting it.
func (s *PaymentService) Quote(ctx context.Context, selection models.PaymentSelection, priceBaseID string, opts CalculateOptions) (*models.PaymentResult, error) {
	return s.calculator.CalculatePayment(ctx, selection, priceBaseID, opts)
}

// AvailableMemberships prices the membership catalog for a price base.
func (s *PaymentService) AvailableMemberships(ctx context.Context, priceBaseID string) ([]models.MembershipInfo, error) {
	return s.calculator.GetAvailableMemberships(ctx, priceBaseID)
}

// Record prices the input and appends it to the ledger. Staff operators
// always record against their own franchise.
func (s *PaymentService) Record(ctx context.Context, input RecordPaymentInput, actor *models.JWTClaims) (*models.PaymentRecord, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing operator")
	}
	if err := checkStaffScope(actor); err != nil {
		return nil, err
	}
	input.StudentName = strings.TrimSpace(input.StudentName)
	if input.StudentName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_name is required")
	}
	franchise := strings.TrimSpace(input.Franchise)
	if actor.Role == models.RoleStaff || franchise == "" {
		franchise = strings.TrimSpace(actor.Franchise)
	}
	if franchise == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "franchise is required")
	}

	result, err := s.calculator.CalculatePayment(ctx, input.Selection, input.PriceBaseID, input.Options)
	if err != nil {
		return nil, err
	}

	selection, err := json.Marshal(input.Selection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode selection")
	}
	lines, err := json.Marshal(result.Lines)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode breakdown lines")
	}
	timing := input.Options.Timing
	if timing == "" {
		timing = models.TimingNormal
	}

	record := &models.PaymentRecord{
		StudentName:       input.StudentName,
		Franchise:         franchise,
		PriceBaseID:       input.PriceBaseID,
		SelectionType:     input.Selection.Type(),
		Selection:         types.JSONText(selection),
		Timing:            timing,
		IncludeEnrollment: input.Options.IncludeEnrollment,
		BaseAmount:        result.BaseAmount,
		Discount:          result.Discount,
		FinalAmount:       result.FinalAmount,
		Description:       result.Description,
		Breakdown:         result.Breakdown,
		Lines:             types.JSONText(lines),
		CreatedBy:         actor.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.metrics.RecordPaymentPersisted()
	s.logger.Info("payment recorded",
		zap.String("payment_id", record.ID),
		zap.String("franchise", record.Franchise),
		zap.String("final_amount", record.FinalAmount.String()),
		zap.String("created_by", record.CreatedBy),
	)
	return record, nil
}

// Get returns a recorded payment. Staff may only read their franchise.
func (s *PaymentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PaymentRecord, error) {
	if err := checkStaffScope(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if actor != nil && actor.Role == models.RoleStaff && record.Franchise != actor.Franchise {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return record, nil
}

// List returns paginated payments.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter, actor *models.JWTClaims) ([]models.PaymentRecord, *models.Pagination, error) {
	if err := checkStaffScope(actor); err != nil {
		return nil, nil, err
	}
	if actor != nil && actor.Role == models.RoleStaff {
		filter.Franchise = actor.Franchise
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// checkStaffScope rejects staff operators without a franchise. An empty
// franchise would otherwise lift the franchise filter on reads.
func checkStaffScope(actor *models.JWTClaims) error {
	if actor != nil && actor.Role == models.RoleStaff && strings.TrimSpace(actor.Franchise) == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "operator has no franchise assigned")
	}
	return nil
}

func calculationFromRequest(req dto.CalculatePaymentRequest) (models.PaymentSelection, CalculateOptions, error) {
	selection, err := req.Selection.ToSelection()
	if err != nil {
		return nil, CalculateOptions{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	opts := CalculateOptions{
		Timing:            models.PaymentTiming(strings.ToUpper(strings.TrimSpace(string(req.Timing)))),
		IncludeEnrollment: req.IncludeEnrollment,
	}
	if req.EnrollmentFee != nil {
		opts.EnrollmentFee = decimal.NewNullDecimal(*req.EnrollmentFee)
	}
	return selection, opts, nil
}
