package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juanketo/BBMApp-sub000/internal/dto"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
	"github.com/juanketo/BBMApp-sub000/pkg/response"
)

type pricingService interface {
	ListPriceBases(ctx context.Context) ([]models.PriceBase, error)
	GetPriceBase(ctx context.Context, id string) (*models.PriceBase, error)
	CreatePriceBase(ctx context.Context, req service.PriceBaseRequest) (*models.PriceBase, error)
	UpdatePriceBase(ctx context.Context, id string, req service.PriceBaseRequest) (*models.PriceBase, error)
	DeletePriceBase(ctx context.Context, id string) error
	ListMemberships(ctx context.Context) ([]models.Membership, error)
	GetMembership(ctx context.Context, id string) (*models.Membership, error)
	CreateMembership(ctx context.Context, req service.MembershipRequest) (*models.Membership, error)
	UpdateMembership(ctx context.Context, id string, req service.MembershipRequest) (*models.Membership, error)
	DeleteMembership(ctx context.Context, id string) error
}

type priceQuoter interface {
	CurrentBasePrice(ctx context.Context, priceBaseID string) (*dto.PriceBaseQuote, error)
	AvailableMemberships(ctx context.Context, priceBaseID string) ([]models.MembershipInfo, error)
}

type membershipExporter interface {
	MembershipsCSV(ctx context.Context, priceBaseID string) (*service.Document, error)
}

// PricingHandler serves price base and membership endpoints.
type PricingHandler struct {
	service  pricingService
	quoter   priceQuoter
	exporter membershipExporter
}

// NewPricingHandler constructs a pricing handler.
func NewPricingHandler(svc pricingService, quoter priceQuoter, exporter membershipExporter) *PricingHandler {
	return &PricingHandler{service: svc, quoter: quoter, exporter: exporter}
}

// ListPriceBases godoc
// @Summary List price bases
// @Tags Pricing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /price-bases [get]
func (h *PricingHandler) ListPriceBases(c *gin.Context) {
	items, err := h.service.ListPriceBases(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetPriceBase godoc
// @Summary Get price base by id
// @Tags Pricing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /price-bases/{id} [get]
func (h *PricingHandler) GetPriceBase(c *gin.Context) {
	item, err := h.service.GetPriceBase(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CurrentPrice godoc
// @Summary Current base price
// @Tags Pricing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /price-bases/{id}/price [get]
func (h *PricingHandler) CurrentPrice(c *gin.Context) {
	quote, err := h.quoter.CurrentBasePrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// AvailableMemberships godoc
// @Summary Memberships priced against a price base
// @Tags Pricing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /price-bases/{id}/memberships [get]
func (h *PricingHandler) AvailableMemberships(c *gin.Context) {
	items, err := h.quoter.AvailableMemberships(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ExportMemberships godoc
// @Summary Export priced memberships as CSV
// @Tags Pricing
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Success 200 {file} file
// @Router /price-bases/{id}/memberships/export [get]
func (h *PricingHandler) ExportMemberships(c *gin.Context) {
	doc, err := h.exporter.MembershipsCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}

// CreatePriceBase godoc
// @Summary Create price base
// @Tags Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PriceBaseRequest true "Price base payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /price-bases [post]
func (h *PricingHandler) CreatePriceBase(c *gin.Context) {
	var req service.PriceBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid price base payload"))
		return
	}
	item, err := h.service.CreatePriceBase(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdatePriceBase godoc
// @Summary Update price base
// @Tags Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Param payload body service.PriceBaseRequest true "Price base payload"
// @Success 200 {object} response.Envelope
// @Router /price-bases/{id} [put]
func (h *PricingHandler) UpdatePriceBase(c *gin.Context) {
	var req service.PriceBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid price base payload"))
		return
	}
	item, err := h.service.UpdatePriceBase(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeletePriceBase godoc
// @Summary Delete price base
// @Tags Pricing
// @Security BearerAuth
// @Param id path string true "Price base ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /price-bases/{id} [delete]
func (h *PricingHandler) DeletePriceBase(c *gin.Context) {
	if err := h.service.DeletePriceBase(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMemberships godoc
// @Summary List memberships
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /memberships [get]
func (h *PricingHandler) ListMemberships(c *gin.Context) {
	items, err := h.service.ListMemberships(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetMembership godoc
// @Summary Get membership by id
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Membership ID"
// @Success 200 {object} response.Envelope
// @Router /memberships/{id} [get]
func (h *PricingHandler) GetMembership(c *gin.Context) {
	item, err := h.service.GetMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateMembership godoc
// @Summary Create membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MembershipRequest true "Membership payload"
// @Success 201 {object} response.Envelope
// @Router /memberships [post]
func (h *PricingHandler) CreateMembership(c *gin.Context) {
	var req service.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}
	item, err := h.service.CreateMembership(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateMembership godoc
// @Summary Update membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Membership ID"
// @Param payload body service.MembershipRequest true "Membership payload"
// @Success 200 {object} response.Envelope
// @Router /memberships/{id} [put]
func (h *PricingHandler) UpdateMembership(c *gin.Context) {
	var req service.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}
	item, err := h.service.UpdateMembership(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteMembership godoc
// @Summary Delete membership
// @Tags Memberships
// @Security BearerAuth
// @Param id path string true "Membership ID"
// @Success 204
// @Router /memberships/{id} [delete]
func (h *PricingHandler) DeleteMembership(c *gin.Context) {
	if err := h.service.DeleteMembership(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
