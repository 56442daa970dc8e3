package admin

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/order"
	"velora_back_end/internal/query"
)

type OrderHandler struct {
	Engine *order.Engine
}

func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{Engine: engine}
}

//
// 📋 GET /api/admin/orders
//
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	page := query.Parse(c.Query("page"), c.Query("limit"), c.Query("sort"))
	orders, total, err := h.Engine.ListOrders(c.Request.Context(), actor, order.ScopeAll, page)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page.Page,
		"limit":  page.Limit,
	})
}

//
// ✏️ PATCH /api/admin/orders/:id
//
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	updated, err := h.Engine.UpdateOrder(c.Request.Context(), actor, c.Param("id"), raw)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande mise à jour", "order": updated})
}

//
// 🚚 PUT /api/admin/orders/:id/deliver
//
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	delivered, err := h.Engine.Deliver(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande livrée", "order": delivered})
}

//
// 🗑️ DELETE /api/admin/orders/:id
//
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	if err := h.Engine.DeleteOrder(c.Request.Context(), actor, c.Param("id")); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande supprimée et stock restauré"})
}

//
// 📊 GET /api/admin/orders/stats
//
func (h *OrderHandler) OrderStats(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	stats, err := h.Engine.Stats(c.Request.Context(), actor)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, stats)
}
