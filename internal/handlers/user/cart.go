package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/cart"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
)

type CartHandler struct {
	Engine *cart.Engine
}

func NewCartHandler(engine *cart.Engine) *CartHandler {
	return &CartHandler{Engine: engine}
}

func cartResponse(c *gin.Context, message string, result *models.Cart) {
	payload := gin.H{
		"items": result.Items,
		"total": result.TotalPrice,
		"count": len(result.Items),
	}
	if message != "" {
		payload["message"] = message
	}
	c.JSON(http.StatusOK, payload)
}

//
// 🟢 GET /api/cart
//
func (h *CartHandler) GetCart(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	result, err := h.Engine.GetCart(c.Request.Context(), actor)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	cartResponse(c, "", result)
}

//
// 🟢 POST /api/cart/add
//
func (h *CartHandler) AddToCart(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1 // quantité par défaut
	}

	result, err := h.Engine.AddItem(c.Request.Context(), actor, input.ProductID, input.Quantity)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	cartResponse(c, "Produit ajouté au panier", result)
}

//
// 🔁 PATCH /api/cart/item/:productId
//
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	productID := c.Param("productId")

	var input struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	result, err := h.Engine.UpdateItemQuantity(c.Request.Context(), actor, productID, input.Quantity)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	cartResponse(c, "Quantité mise à jour", result)
}

//
// ❌ DELETE /api/cart/item/:productId
//
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	productID := c.Param("productId")

	result, err := h.Engine.RemoveItem(c.Request.Context(), actor, productID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	cartResponse(c, "Produit supprimé du panier", result)
}

//
// 🧹 DELETE /api/cart
//
func (h *CartHandler) ClearCart(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	result, err := h.Engine.ClearCart(c.Request.Context(), actor)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	cartResponse(c, "Panier vidé avec succès", result)
}
