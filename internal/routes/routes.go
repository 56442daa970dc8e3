package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"velora_back_end/internal/cart"
	"velora_back_end/internal/handlers"
	"velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/handlers/product"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/order"
	"velora_back_end/internal/store"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(corsConfig()))

	// Stores et moteurs partagés par tous les handlers
	productStore := store.NewScyllaProductStore()
	orderStore := store.NewScyllaOrderStore()
	cartStore := store.NewRedisCartStore()
	userStore := store.NewScyllaUserStore()

	cartEngine := cart.NewEngine(productStore, cartStore)
	orderEngine := order.NewEngine(productStore, orderStore)

	authHandler := handlers.NewAuthHandler(userStore)
	cartHandler := user.NewCartHandler(cartEngine)
	orderHandler := user.NewOrderHandler(orderEngine)
	adminOrders := admin.NewOrderHandler(orderEngine)
	productHandler := product.NewProductHandler(productStore)
	inventoryHandler := product.NewInventoryHandler(productStore)

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
	}

	// Catalogue public
	products := api.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	// Catalogue authentifié (owner ou admin)
	productsAuth := api.Group("/products", middleware.AuthRequired())
	{
		productsAuth.POST("", productHandler.CreateProduct)
		productsAuth.PUT("/:id", productHandler.UpdateProduct)
		productsAuth.DELETE("/:id", productHandler.DeleteProduct)
		productsAuth.POST("/:id/image", productHandler.UploadImage)
	}

	// Panier
	cartGroup := api.Group("/cart", middleware.AuthRequired())
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("/add", cartHandler.AddToCart)
		cartGroup.PATCH("/item/:productId", cartHandler.UpdateQuantity)
		cartGroup.DELETE("/item/:productId", cartHandler.RemoveFromCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
	}

	// Commandes
	orders := api.Group("/orders", middleware.AuthRequired())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/mine", orderHandler.GetMyOrders)
		orders.GET("/:id", orderHandler.GetOrderByID)
		orders.PUT("/:id/pay", orderHandler.PayOrder)
		orders.GET("/:id/invoice", orderHandler.DownloadInvoice)
		orders.GET("/:id/qrcode", orderHandler.OrderQRCode)
	}

	// Administration
	adminGroup := api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adminGroup.GET("/orders", adminOrders.ListOrders)
		adminGroup.GET("/orders/stats", adminOrders.OrderStats)
		adminGroup.PATCH("/orders/:id", adminOrders.UpdateOrder)
		adminGroup.PUT("/orders/:id/deliver", adminOrders.DeliverOrder)
		adminGroup.DELETE("/orders/:id", adminOrders.DeleteOrder)
		adminGroup.POST("/products/:id/stock", inventoryHandler.AdjustStock)
		adminGroup.GET("/stock-movements", inventoryHandler.ListStockMovements)
	}
}

func corsConfig() cors.Config {
	origins := []string{"http://localhost:3000"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
