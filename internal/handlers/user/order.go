package user

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/order"
	"velora_back_end/internal/query"
	"velora_back_end/internal/utils"
)

type OrderHandler struct {
	Engine *order.Engine
}

func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{Engine: engine}
}

//
// 🛒 POST /api/orders
//
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	var input order.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de commande invalides"})
		return
	}

	created, err := h.Engine.CreateOrder(c.Request.Context(), actor, input)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	// Email de confirmation en arrière-plan (best-effort)
	go func(o models.Order, email string) {
		if email == "" {
			return
		}
		html := utils.GenerateOrderConfirmationHTML(&o)
		subject := fmt.Sprintf("Confirmation de commande #%s", o.ID.String())
		if err := utils.SendOrderEmail(email, subject, html, nil); err != nil {
			log.Printf("⚠️ Échec de l'envoi de l'email de confirmation: %v", err)
		}
	}(*created, actor.Email)

	c.JSON(http.StatusCreated, created)
}

//
// 📦 GET /api/orders/mine
//
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	page := query.Parse(c.Query("page"), c.Query("limit"), c.Query("sort"))
	orders, total, err := h.Engine.ListOrders(c.Request.Context(), actor, order.ScopeOwn, page)
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
// 🔍 GET /api/orders/:id
//
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	found, err := h.Engine.GetOrderByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, found)
}

//
// 💳 PUT /api/orders/:id/pay
//
func (h *OrderHandler) PayOrder(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	result, err := bindPaymentResult(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Résultat de paiement invalide"})
		return
	}

	paid, err := h.Engine.Pay(c.Request.Context(), actor, c.Param("id"), result)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande payée avec succès", "order": paid})
}

// bindPaymentResult lit le reçu de paiement optionnel. Sans corps de requête
// il renvoie nil, pour que payment_result reste réellement absent au lieu de
// persister un reçu vide.
func bindPaymentResult(c *gin.Context) (*models.PaymentResult, error) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, nil
	}

	var result models.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

//
// 🧾 GET /api/orders/:id/invoice
//
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	found, err := h.Engine.GetOrderByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	html, err := utils.GenerateInvoiceHTML(found)
	if err != nil {
		log.Printf("❌ Erreur génération facture HTML: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la génération de la facture"})
		return
	}
	pdf, err := utils.RenderInvoicePDF(html)
	if err != nil {
		log.Printf("❌ Erreur rendu PDF: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la génération de la facture"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=facture_%s.pdf", found.ID.String()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

//
// 📱 GET /api/orders/:id/qrcode
//
func (h *OrderHandler) OrderQRCode(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	found, err := h.Engine.GetOrderByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	png, err := utils.GenerateOrderQR(found.ID.String())
	if err != nil {
		log.Printf("❌ Erreur génération QR code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la génération du QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
