package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lottery-miniapp-backend/internal/common/errors"
	"lottery-miniapp-backend/internal/common/middleware"
	"lottery-miniapp-backend/internal/features/cart/models"
	"lottery-miniapp-backend/internal/features/cart/service"
	"lottery-miniapp-backend/internal/utils/random"
)

// Funds reports how much USDT a user can spend at checkout.
type Funds interface {
	AvailableUSDT(userID int64) (decimal.Decimal, error)
}

type CartHandler struct {
	carts  *service.Registry
	format models.TicketFormat
	funds  Funds
}

func NewCartHandler(carts *service.Registry, format models.TicketFormat, funds Funds) *CartHandler {
	return &CartHandler{
		carts:  carts,
		format: format,
		funds:  funds,
	}
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.getCart)
		cart.DELETE("", h.clearCart)
		cart.POST("/tickets", h.addTicket)
		cart.POST("/tickets/quick-pick", h.quickPick)
		cart.DELETE("/tickets/:id", h.removeTicket)
		cart.GET("/checkout", h.checkout)
	}
}

type CartResponse struct {
	Tickets []models.CartTicket `json:"tickets"`
	Summary models.Summary      `json:"summary"`
	Format  models.TicketFormat `json:"format"`
}

func (h *CartHandler) cart(c *gin.Context) (*service.Cart, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("user not found in context"))
		return nil, false
	}
	cart, err := h.carts.For(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(apperrors.NewCacheError("load cart", err))
		return nil, false
	}
	return cart, true
}

func (h *CartHandler) respond(c *gin.Context, status int, cart *service.Cart) {
	c.JSON(status, CartResponse{
		Tickets: cart.Tickets(),
		Summary: cart.Summary(),
		Format:  h.format,
	})
}

func (h *CartHandler) getCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) addTicket(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	var req models.AddTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("numbers", err.Error()))
		return
	}
	if err := h.format.Validate(req.Numbers); err != nil {
		_ = c.Error(err)
		return
	}

	ticket := cart.AddTicket(c.Request.Context(), req.Numbers)
	c.JSON(http.StatusCreated, gin.H{
		"ticket":  ticket,
		"summary": cart.Summary(),
	})
}

func (h *CartHandler) quickPick(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	numbers, err := random.QuickPick(h.format.NumbersPerTicket, h.format.MaxNumber)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to pick numbers"))
		return
	}

	ticket := cart.AddTicket(c.Request.Context(), numbers)
	c.JSON(http.StatusCreated, gin.H{
		"ticket":  ticket,
		"summary": cart.Summary(),
	})
}

func (h *CartHandler) removeTicket(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if !cart.RemoveTicket(c.Request.Context(), id) {
		_ = c.Error(apperrors.NewNotFoundError("ticket", id))
		return
	}
	h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) clearCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	cart.ClearCart(c.Request.Context())
	h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) checkout(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	available, err := h.funds.AvailableUSDT(userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart.Quote(available))
}
