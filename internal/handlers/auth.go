package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/cache"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/store"
	"velora_back_end/internal/utils"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	Users *store.ScyllaUserStore
}

func NewAuthHandler(users *store.ScyllaUserStore) *AuthHandler {
	return &AuthHandler{Users: users}
}

//
// 📝 POST /api/auth/signup
//
func (h *AuthHandler) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données d'inscription invalides"})
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		log.Printf("❌ Erreur hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	u := models.User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    input.Phone,
		Password: hash,
		Role:     models.RoleUser,
	}

	if err := h.Users.Create(c.Request.Context(), &u); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Un compte existe déjà avec cet email"})
			return
		}
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	token, err := utils.GenerateJWT(u)
	if err != nil {
		log.Printf("❌ Erreur génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	refresh := uuid.NewString()
	if err := cache.StoreRefreshToken(u.ID, refresh, refreshTokenTTL); err != nil {
		log.Printf("⚠️ Impossible de stocker le refresh token: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Compte créé avec succès",
		"token":         token,
		"refresh_token": refresh,
		"user":          u,
	})
}

//
// 🔑 POST /api/auth/login
//
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	u, err := h.Users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		// Message identique que l'email existe ou non
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, u.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects"})
		return
	}

	token, err := utils.GenerateJWT(*u)
	if err != nil {
		log.Printf("❌ Erreur génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	refresh := uuid.NewString()
	if err := cache.StoreRefreshToken(u.ID, refresh, refreshTokenTTL); err != nil {
		log.Printf("⚠️ Impossible de stocker le refresh token: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Connexion réussie",
		"token":         token,
		"refresh_token": refresh,
		"user":          u,
	})
}

//
// 👤 GET /api/auth/me
//
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	u, err := h.Users.GetByID(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, u)
}

//
// 🚪 POST /api/auth/logout
//
func (h *AuthHandler) Logout(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	if err := cache.DeleteRefreshToken(actor.ID); err != nil {
		log.Printf("⚠️ Impossible de supprimer le refresh token: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}
