package handler

import (
	"context"

	appstock "github.com/erp/stockreservation/internal/application/stock"
	"github.com/erp/stockreservation/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReservationService is the application API served by StockReservationHandler.
// *appstock.ReservationService implements it.
type ReservationService interface {
	Validate(ctx context.Context, req appstock.CreateReservationRequest) error
	Create(ctx context.Context, req appstock.CreateReservationRequest) (*appstock.StockReservationEntryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*appstock.StockReservationEntryResponse, error)
	List(ctx context.Context, filter appstock.ReservationListFilter) ([]appstock.StockReservationEntryResponse, int64, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, req appstock.UpdateReservationRequest) (*appstock.StockReservationEntryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Submit(ctx context.Context, id uuid.UUID) (*appstock.StockReservationEntryResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appstock.StockReservationEntryResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req appstock.UpdateStatusRequest) (*appstock.StockReservationEntryResponse, error)
	RecordDelivery(ctx context.Context, id uuid.UUID, req appstock.RecordDeliveryRequest) (*appstock.StockReservationEntryResponse, error)
	GetVoucherLineReservedQty(ctx context.Context, req appstock.VoucherLineRequest) (*appstock.VoucherLineReservedQtyResponse, error)
	RecalculateVoucherLine(ctx context.Context, req appstock.VoucherLineRequest) (*appstock.VoucherLineReservedQtyResponse, error)
}

var _ ReservationService = (*appstock.ReservationService)(nil)

// StockReservationHandler handles the stock reservation API endpoints
type StockReservationHandler struct {
	BaseHandler
	service ReservationService
}

// NewStockReservationHandler creates a new StockReservationHandler
func NewStockReservationHandler(service ReservationService) *StockReservationHandler {
	return &StockReservationHandler{service: service}
}

// Routes returns the stock domain route group
func (h *StockReservationHandler) Routes() *router.DomainGroup {
	group := router.NewDomainGroup("stock", "/stock")

	group.Group("reservations", "/reservations").
		POST("", h.Create).
		GET("", h.List).
		POST("/validate", h.Validate).
		GET("/:id", h.Get).
		PUT("/:id", h.UpdateDraft).
		DELETE("/:id", h.Delete).
		POST("/:id/submit", h.Submit).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/status", h.UpdateStatus).
		POST("/:id/delivery", h.RecordDelivery)

	group.Group("voucher-lines", "/voucher-lines").
		GET("/reserved-qty", h.GetVoucherLineReservedQty).
		POST("/recalculate", h.RecalculateVoucherLine)

	return group
}

// RegisterRoutes implements router.RouteRegistrar
func (h *StockReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.Routes().RegisterRoutes(rg)
}

// Create stores a new draft reservation entry.
// POST /stock/reservations
func (h *StockReservationHandler) Create(c *gin.Context) {
	var req appstock.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Validate runs the reservation checks on a payload without storing it.
// POST /stock/reservations/validate
func (h *StockReservationHandler) Validate(c *gin.Context) {
	var req appstock.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.service.Validate(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"valid": true})
}

// List returns a page of reservation entries.
// GET /stock/reservations
func (h *StockReservationHandler) List(c *gin.Context) {
	var filter appstock.ReservationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	entries, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Get returns one reservation entry.
// GET /stock/reservations/:id
func (h *StockReservationHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// UpdateDraft amends a draft entry.
// PUT /stock/reservations/:id
func (h *StockReservationHandler) UpdateDraft(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appstock.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.service.UpdateDraft(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Delete removes a draft entry.
// DELETE /stock/reservations/:id
func (h *StockReservationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit moves a draft entry to Submitted and adds its quantity to the voucher line.
// POST /stock/reservations/:id/submit
func (h *StockReservationHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit)
}

// Cancel moves a submitted entry to Cancelled and releases its quantity.
// POST /stock/reservations/:id/cancel
func (h *StockReservationHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *StockReservationHandler) transition(
	c *gin.Context,
	op func(context.Context, uuid.UUID) (*appstock.StockReservationEntryResponse, error),
) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// UpdateStatus overrides the cached status, or recomputes it when the body
// carries no status.
// POST /stock/reservations/:id/status
func (h *StockReservationHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appstock.UpdateStatusRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	entry, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RecordDelivery sets the delivered quantity of a submitted entry.
// POST /stock/reservations/:id/delivery
func (h *StockReservationHandler) RecordDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req appstock.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.service.RecordDelivery(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// GetVoucherLineReservedQty compares the ledger total of a voucher line with
// the value stored on the line.
// GET /stock/voucher-lines/reserved-qty
func (h *StockReservationHandler) GetVoucherLineReservedQty(c *gin.Context) {
	var req appstock.VoucherLineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	line, err := h.service.GetVoucherLineReservedQty(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// RecalculateVoucherLine rewrites the stored total of a voucher line from the ledger.
// POST /stock/voucher-lines/recalculate
func (h *StockReservationHandler) RecalculateVoucherLine(c *gin.Context) {
	var req appstock.VoucherLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	line, err := h.service.RecalculateVoucherLine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}
