package product

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"velora_back_end/internal/access"
	"velora_back_end/internal/apperr"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/query"
	"velora_back_end/internal/services"
	"velora_back_end/internal/store"
)

type ProductHandler struct {
	Store *store.ScyllaProductStore
}

func NewProductHandler(s *store.ScyllaProductStore) *ProductHandler {
	return &ProductHandler{Store: s}
}

//
// 🟢 GET /api/products
//
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page := query.Parse(c.Query("page"), c.Query("limit"), c.Query("sort"))

	products, total, err := h.Store.ListProducts(c.Request.Context(), c.Query("category"), page)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page.Page,
		"limit":    page.Limit,
	})
}

//
// 🔍 GET /api/products/:id
//
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	found, err := h.Store.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, found)
}

//
// 🔎 GET /api/products/search?q=...
//
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre de recherche manquant"})
		return
	}

	hits, err := services.SearchProducts(q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la recherche"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}

type productInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

//
// ➕ POST /api/products
//
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données produit invalides"})
		return
	}
	if input.Price.IsNegative() || input.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	now := time.Now().UTC()
	p := models.Product{
		ID:          gocql.TimeUUID(),
		OwnerID:     actor.ID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Store.CreateProduct(c.Request.Context(), &p); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	services.IndexProduct(&p)
	c.JSON(http.StatusCreated, p)
}

//
// ✏️ PUT /api/products/:id
//
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	existing, err := h.Store.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	if err := access.RequireOwnerOrAdmin(actor, existing.OwnerID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données produit invalides"})
		return
	}
	if input.Price.IsNegative() || input.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	existing.Name = input.Name
	existing.Description = input.Description
	existing.Price = input.Price
	existing.Stock = input.Stock
	existing.Category = input.Category
	existing.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateProduct(c.Request.Context(), existing); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	services.IndexProduct(existing)
	c.JSON(http.StatusOK, existing)
}

//
// 🗑️ DELETE /api/products/:id
//
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	existing, err := h.Store.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	if err := access.RequireOwnerOrAdmin(actor, existing.OwnerID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	if err := h.Store.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	services.RemoveProductFromIndex(id.String())
	if existing.ImageID != "" {
		_ = services.RemoveProductImage(c.Request.Context(), existing.ImageID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

//
// 📤 POST /api/products/:id/image
//
func (h *ProductHandler) UploadImage(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	existing, err := h.Store.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	if err := access.RequireOwnerOrAdmin(actor, existing.OwnerID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune image fournie"})
		return
	}

	url, objectID, err := services.UploadProductImage(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'upload de l'image"})
		return
	}

	// Ancienne image nettoyée après remplacement
	oldImageID := existing.ImageID
	existing.ImageURL = url
	existing.ImageID = objectID
	existing.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateProduct(c.Request.Context(), existing); err != nil {
		_ = services.RemoveProductImage(c.Request.Context(), objectID)
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	if oldImageID != "" {
		_ = services.RemoveProductImage(c.Request.Context(), oldImageID)
	}

	services.IndexProduct(existing)
	c.JSON(http.StatusOK, gin.H{"message": "Image mise à jour", "image_url": url})
}
