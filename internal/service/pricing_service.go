package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

type pricingRepository interface {
	GetAllPriceBases(ctx context.Context) ([]models.PriceBase, error)
	GetPriceBaseByID(ctx context.Context, id string) (*models.PriceBase, error)
	PriceBaseNameExists(ctx context.Context, name, excludeID string) (bool, error)
	CreatePriceBase(ctx context.Context, item *models.PriceBase) error
	UpdatePriceBase(ctx context.Context, item *models.PriceBase) error
	DeletePriceBase(ctx context.Context, id string) error
	CountPaymentsByPriceBase(ctx context.Context, id string) (int, error)
	GetAllMemberships(ctx context.Context) ([]models.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (*models.Membership, error)
	MembershipNameExists(ctx context.Context, name, excludeID string) (bool, error)
	CreateMembership(ctx context.Context, item *models.Membership) error
	UpdateMembership(ctx context.Context, item *models.Membership) error
	DeleteMembership(ctx context.Context, id string) error
}

type pricingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// PriceBaseRequest captures fields for creating or updating price bases.
type PriceBaseRequest struct {
	Name   string          `json:"name" validate:"required,max=120"`
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active"`
}

// MembershipRequest captures fields for creating or updating memberships.
type MembershipRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	MonthsPaid  int             `json:"months_paid" validate:"required,min=1,max=24"`
	MonthsSaved decimal.Decimal `json:"months_saved"`
}

// PricingService manages price bases and memberships.
type PricingService struct {
	repo      pricingRepository
	cache     pricingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPricingService constructs a pricing service. cache may be nil.
func NewPricingService(repo pricingRepository, cache pricingInvalidator, validate *validator.Validate, logger *zap.Logger) *PricingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListPriceBases returns every price base.
func (s *PricingService) ListPriceBases(ctx context.Context) ([]models.PriceBase, error) {
	items, err := s.repo.GetAllPriceBases(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list price bases")
	}
	return items, nil
}

// GetPriceBase returns a price base by identifier.
func (s *PricingService) GetPriceBase(ctx context.Context, id string) (*models.PriceBase, error) {
	item, err := s.repo.GetPriceBaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "price base not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load price base")
	}
	return item, nil
}

// CreatePriceBase adds a price base ensuring name uniqueness.
func (s *PricingService) CreatePriceBase(ctx context.Context, req PriceBaseRequest) (*models.PriceBase, error) {
	if err := s.validatePriceBase(&req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, s.repo.PriceBaseNameExists, req.Name, "", "price base"); err != nil {
		return nil, err
	}

	item := &models.PriceBase{Name: req.Name, Price: req.Price, Active: true}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.repo.CreatePriceBase(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create price base")
	}
	s.invalidate(ctx)
	s.logger.Info("price base created", zap.String("id", item.ID), zap.String("price", item.Price.String()))
	return item, nil
}

// UpdatePriceBase modifies an existing price base.
func (s *PricingService) UpdatePriceBase(ctx context.Context, id string, req PriceBaseRequest) (*models.PriceBase, error) {
	if err := s.validatePriceBase(&req); err != nil {
		return nil, err
	}
	item, err := s.GetPriceBase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, s.repo.PriceBaseNameExists, req.Name, id, "price base"); err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Price = req.Price
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.repo.UpdatePriceBase(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update price base")
	}
	s.invalidate(ctx)
	return item, nil
}

// DeletePriceBase removes a price base that no recorded payment references.
func (s *PricingService) DeletePriceBase(ctx context.Context, id string) error {
	if _, err := s.GetPriceBase(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountPaymentsByPriceBase(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check price base dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "price base referenced by recorded payments")
	}
	if err := s.repo.DeletePriceBase(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete price base")
	}
	s.invalidate(ctx)
	return nil
}

// ListMemberships returns every membership.
func (s *PricingService) ListMemberships(ctx context.Context) ([]models.Membership, error) {
	items, err := s.repo.GetAllMemberships(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memberships")
	}
	return items, nil
}

// GetMembership returns a membership by identifier.
func (s *PricingService) GetMembership(ctx context.Context, id string) (*models.Membership, error) {
	item, err := s.repo.GetMembershipByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	return item, nil
}

// CreateMembership adds a membership ensuring name uniqueness.
func (s *PricingService) CreateMembership(ctx context.Context, req MembershipRequest) (*models.Membership, error) {
	if err := s.validateMembership(&req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, s.repo.MembershipNameExists, req.Name, "", "membership"); err != nil {
		return nil, err
	}

	item := &models.Membership{Name: req.Name, MonthsPaid: req.MonthsPaid, MonthsSaved: req.MonthsSaved}
	if err := s.repo.CreateMembership(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create membership")
	}
	s.invalidate(ctx)
	s.logger.Info("membership created", zap.String("id", item.ID), zap.Int("months_paid", item.MonthsPaid))
	return item, nil
}

// UpdateMembership modifies an existing membership.
func (s *PricingService) UpdateMembership(ctx context.Context, id string, req MembershipRequest) (*models.Membership, error) {
	if err := s.validateMembership(&req); err != nil {
		return nil, err
	}
	item, err := s.GetMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, s.repo.MembershipNameExists, req.Name, id, "membership"); err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.MonthsPaid = req.MonthsPaid
	item.MonthsSaved = req.MonthsSaved
	if err := s.repo.UpdateMembership(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update membership")
	}
	s.invalidate(ctx)
	return item, nil
}

// DeleteMembership removes a membership.
func (s *PricingService) DeleteMembership(ctx context.Context, id string) error {
	if _, err := s.GetMembership(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteMembership(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete membership")
	}
	s.invalidate(ctx)
	return nil
}

func (s *PricingService) validatePriceBase(req *PriceBaseRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid price base payload")
	}
	if !req.Price.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "price must be greater than zero")
	}
	return nil
}

// validateMembership also requires the saved months to stay below the paid
// months so a membership never prices at zero or less.
func (s *PricingService) validateMembership(req *MembershipRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid membership payload")
	}
	if req.MonthsSaved.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "months_saved cannot be negative")
	}
	if req.MonthsSaved.GreaterThanOrEqual(decimal.NewFromInt(int64(req.MonthsPaid))) {
		return appErrors.Clone(appErrors.ErrValidation, "months_saved must be less than months_paid")
	}
	return nil
}

func (s *PricingService) ensureUniqueName(ctx context.Context, exists func(context.Context, string, string) (bool, error), name, excludeID, kind string) error {
	taken, err := exists(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check "+kind+" name")
	}
	if taken {
		return appErrors.Clonef(appErrors.ErrConflict, "%s name already exists", kind)
	}
	return nil
}

func (s *PricingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate pricing cache", zap.Error(err))
	}
}
