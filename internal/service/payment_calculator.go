package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/models"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
	"github.com/juanketo/BBMApp-sub000/pkg/money"
)

// DefaultEnrollmentFee is charged when no fee is configured or requested.
var DefaultEnrollmentFee = decimal.NewFromInt(800)

// PricingProvider supplies the reference data for payment calculations.
// Lookups by id return sql.ErrNoRows when the record does not exist.
type PricingProvider interface {
	GetAllPriceBases(ctx context.Context) ([]models.PriceBase, error)
	GetPriceBaseByID(ctx context.Context, id string) (*models.PriceBase, error)
	GetAllMemberships(ctx context.Context) ([]models.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (*models.Membership, error)
}

// CalculateOptions tunes a single calculation.
type CalculateOptions struct {
	// Timing defaults to NORMAL.
	Timing models.PaymentTiming
	// EnrollmentFee overrides the configured fee when Valid.
	EnrollmentFee     decimal.NullDecimal
	IncludeEnrollment bool
}

// CalculatorConfig holds calculator defaults.
type CalculatorConfig struct {
	// EnrollmentFee falls back to DefaultEnrollmentFee when unset or
	// negative. A configured zero waives the fee.
	EnrollmentFee  decimal.NullDecimal
	CurrencySymbol string
}

// PaymentCalculator prices payment selections. It keeps no state between
// calls and is safe for concurrent use.
type PaymentCalculator struct {
	provider      PricingProvider
	enrollmentFee decimal.Decimal
	formatter     money.Formatter
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewPaymentCalculator constructs a calculator over the given provider.
func NewPaymentCalculator(provider PricingProvider, cfg CalculatorConfig, metrics *MetricsService, logger *zap.Logger) *PaymentCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	fee := DefaultEnrollmentFee
	if cfg.EnrollmentFee.Valid && !cfg.EnrollmentFee.Decimal.IsNegative() {
		fee = cfg.EnrollmentFee.Decimal
	}
	return &PaymentCalculator{
		provider:      provider,
		enrollmentFee: fee,
		formatter:     money.NewFormatter(cfg.CurrencySymbol),
		metrics:       metrics,
		logger:        logger,
	}
}

// Formatter exposes the money formatter used for breakdowns.
func (c *PaymentCalculator) Formatter() money.Formatter {
	return c.formatter
}

// CalculatePayment prices selection against the price base priceBaseID.
func (c *PaymentCalculator) CalculatePayment(ctx context.Context, selection models.PaymentSelection, priceBaseID string, opts CalculateOptions) (*models.PaymentResult, error) {
	result, err := c.calculate(ctx, selection, priceBaseID, opts)
	if selection != nil {
		c.metrics.RecordPaymentCalculation(string(selection.Type()), err)
	}
	return result, err
}

func (c *PaymentCalculator) calculate(ctx context.Context, selection models.PaymentSelection, priceBaseID string, opts CalculateOptions) (*models.PaymentResult, error) {
	if selection == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "payment selection is required")
	}
	timing := opts.Timing
	if timing == "" {
		timing = models.TimingNormal
	}
	if !timing.Valid() {
		return nil, appErrors.Clonef(appErrors.ErrInvalidConfiguration, "unknown payment timing %q", timing)
	}
	fee := c.enrollmentFee
	if opts.EnrollmentFee.Valid {
		if opts.EnrollmentFee.Decimal.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "enrollment fee cannot be negative")
		}
		fee = opts.EnrollmentFee.Decimal
	}

	basePrice, err := c.GetCurrentBasePrice(ctx, priceBaseID)
	if err != nil {
		return nil, err
	}

	var q *quote
	switch sel := selection.(type) {
	case models.DisciplinesSelection:
		q, err = priceDisciplines(sel, basePrice)
	case models.MixedSiblingsSelection:
		q, err = priceMixedSiblings(sel, basePrice)
	case models.MembershipSelection:
		var membership *models.Membership
		membership, err = c.membership(ctx, sel.MembershipID)
		if err == nil {
			q = priceMembership(membership, basePrice)
		}
	default:
		err = appErrors.Clonef(appErrors.ErrInvalidConfiguration, "unsupported payment selection %T", selection)
	}
	if err != nil {
		return nil, err
	}

	result := c.compose(q, timing, fee, opts.IncludeEnrollment)
	c.logger.Debug("payment calculated",
		zap.String("price_base_id", priceBaseID),
		zap.String("selection", string(selection.Type())),
		zap.String("timing", string(timing)),
		zap.String("final_amount", result.FinalAmount.String()),
	)
	return result, nil
}

// compose applies timing and enrollment on top of a priced selection.
func (c *PaymentCalculator) compose(q *quote, timing models.PaymentTiming, fee decimal.Decimal, includeEnrollment bool) *models.PaymentResult {
	lines := make([]models.LineItem, 0, len(q.baseLines)+len(q.discountLines)+3)
	lines = append(lines, q.baseLines...)
	lines = append(lines, q.discountLines...)

	final := q.baseAmount.Sub(q.discount)
	description := q.description
	if q.applyTiming && timing != models.TimingNormal {
		adjusted := final.Mul(timing.Multiplier())
		lines = append(lines, models.LineItem{Kind: models.LineTiming, Label: timing.Label(), Amount: adjusted.Sub(final)})
		final = adjusted
		description += " - " + timing.Label()
	}
	if includeEnrollment {
		lines = append(lines, models.LineItem{Kind: models.LineEnrollment, Label: "Enrollment fee", Amount: fee})
		final = final.Add(fee)
		description += " + enrollment"
	}
	lines = append(lines, models.LineItem{Kind: models.LineTotal, Label: "Total", Amount: final})

	return &models.PaymentResult{
		BaseAmount:     q.baseAmount,
		Discount:       q.discount,
		FinalAmount:    final,
		Description:    description,
		Breakdown:      RenderBreakdown(lines, c.formatter),
		Lines:          lines,
		MembershipInfo: q.membershipInfo,
	}
}

// GetAvailableMemberships prices every known membership against the base price.
func (c *PaymentCalculator) GetAvailableMemberships(ctx context.Context, priceBaseID string) ([]models.MembershipInfo, error) {
	basePrice, err := c.GetCurrentBasePrice(ctx, priceBaseID)
	if err != nil {
		return nil, err
	}
	memberships, err := c.provider.GetAllMemberships(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memberships")
	}
	infos := make([]models.MembershipInfo, 0, len(memberships))
	for i := range memberships {
		infos = append(infos, membershipInfo(&memberships[i], basePrice))
	}
	return infos, nil
}

// GetCurrentBasePrice resolves the price of a price base.
func (c *PaymentCalculator) GetCurrentBasePrice(ctx context.Context, priceBaseID string) (decimal.Decimal, error) {
	if strings.TrimSpace(priceBaseID) == "" {
		return decimal.Zero, appErrors.Clone(appErrors.ErrNotFound, "price base id is required")
	}
	priceBase, err := c.provider.GetPriceBaseByID(ctx, priceBaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, appErrors.Clonef(appErrors.ErrNotFound, "price base %s not found", priceBaseID)
		}
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load price base")
	}
	if !priceBase.Active {
		return decimal.Zero, appErrors.Clonef(appErrors.ErrInvalidConfiguration, "price base %s is inactive", priceBaseID)
	}
	return priceBase.Price, nil
}

func (c *PaymentCalculator) membership(ctx context.Context, id string) (*models.Membership, error) {
	membership, err := c.provider.GetMembershipByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "membership %s not found", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	return membership, nil
}

// RenderBreakdown renders line items one per line as "label: amount".
func RenderBreakdown(lines []models.LineItem, f money.Formatter) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Label)
		b.WriteString(": ")
		b.WriteString(f.Format(line.Amount))
	}
	return b.String()
}
