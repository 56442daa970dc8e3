package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/store"
)

type InventoryHandler struct {
	Store *store.ScyllaProductStore
}

func NewInventoryHandler(s *store.ScyllaProductStore) *InventoryHandler {
	return &InventoryHandler{Store: s}
}

//
// 🪣 POST /api/admin/products/:id/stock
//
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	var input struct {
		Type     string `json:"type" binding:"required"`
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de stock invalides"})
		return
	}
	switch input.Type {
	case "restock":
		if input.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité de restock invalide"})
			return
		}
	case "adjustment":
		// quantité absolue, zéro inclus
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de mouvement invalide"})
		return
	}

	prev, next, err := h.Store.AdjustStock(c.Request.Context(), id, input.Type, input.Quantity, input.Reason, actor.ID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Stock mis à jour",
		"previous_stock": prev,
		"new_stock":      next,
	})
}

//
// 📜 GET /api/admin/stock-movements
//
func (h *InventoryHandler) ListStockMovements(c *gin.Context) {
	var productID *gocql.UUID
	if raw := c.Query("product"); raw != "" {
		id, err := gocql.ParseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
			return
		}
		productID = &id
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	movements, err := h.Store.StockMovements(c.Request.Context(), productID, limit)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}
