package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lottery-miniapp-backend/internal/common/errors"
	"lottery-miniapp-backend/internal/common/middleware"
	"lottery-miniapp-backend/internal/features/balance/models"
	"lottery-miniapp-backend/internal/features/balance/provider"
	"lottery-miniapp-backend/internal/features/balance/service"
)

type WalletHandler struct {
	trackers *service.Registry
}

func NewWalletHandler(trackers *service.Registry) *WalletHandler {
	return &WalletHandler{trackers: trackers}
}

func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/wallet")
	{
		wallet.PUT("", h.bindWallet)
		wallet.DELETE("", h.unbindWallet)
		wallet.GET("/balance", h.getBalance)
		wallet.POST("/balance/refresh", h.refreshBalance)
	}
}

func (h *WalletHandler) tracker(c *gin.Context) (*service.Tracker, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("user not found in context"))
		return nil, false
	}
	return h.trackers.For(userID), true
}

func (h *WalletHandler) bindWallet(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}

	var req models.BindWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("address", err.Error()))
		return
	}
	addr, err := provider.NormalizeAddress(req.Address)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidAddressError(req.Address, err))
		return
	}

	t.Bind(c.Request.Context(), addr)
	c.JSON(http.StatusOK, t.Snapshot())
}

func (h *WalletHandler) unbindWallet(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	t.Unbind()
	c.JSON(http.StatusOK, t.Snapshot())
}

func (h *WalletHandler) getBalance(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

// refreshBalance answers 200 even when the fetch fails: the snapshot carries
// the retained balances and the error message. The failure is still recorded
// on the context so the error middleware logs it.
func (h *WalletHandler) refreshBalance(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	snap, err := t.Refresh(c.Request.Context())
	if err != nil {
		appErr := apperrors.NewBalanceUnavailableError(err)
		c.Header("X-Balance-Error", string(appErr.Code))
		_ = c.Error(appErr)
	}
	c.JSON(http.StatusOK, snap)
}
