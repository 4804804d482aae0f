package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
	"github.com/juanketo/BBMApp-sub000/pkg/response"
)

type paymentService interface {
	Calculate(ctx context.Context, req dto.CalculatePaymentRequest) (*models.PaymentResult, error)
	Create(ctx context.Context, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentRecord, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PaymentRecord, error)
	List(ctx context.Context, filter models.PaymentFilter, actor *models.JWTClaims) ([]models.PaymentRecord, *models.Pagination, error)
}

type receiptRenderer interface {
	PaymentReceipt(record *models.PaymentRecord) (*service.Document, error)
}

// PaymentHandler serves quote and ledger endpoints.
type PaymentHandler struct {
	service  paymentService
	receipts receiptRenderer
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(svc paymentService, receipts receiptRenderer) *PaymentHandler {
	return &PaymentHandler{service: svc, receipts: receipts}
}

// Quote godoc
// @Summary Calculate a payment
// @Description Prices a selection against a price base without recording it
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CalculatePaymentRequest true "Quote payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments/quote [post]
func (h *PaymentHandler) Quote(c *gin.Context) {
	var req dto.CalculatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	result, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Record a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List recorded payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param student query string false "Student name contains"
// @Param franchise query string false "Franchise"
// @Param from query string false "Created from (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Created before (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	filter := models.PaymentFilter{
		StudentName: strings.TrimSpace(c.Query("student")),
		Franchise:   strings.TrimSpace(c.Query("franchise")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "limit", 20),
	}
	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	records, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get recorded payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Receipt godoc
// @Summary Download payment receipt
// @Tags Payments
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.receipts.PaymentReceipt(record)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, appErrors.Clonef(appErrors.ErrValidation, "invalid %s date %q", key, raw)
}
