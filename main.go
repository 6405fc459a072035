package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/controllers"
	"github.com/craftlink-lk/craftlink-api/middleware"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/realtime"
	"github.com/craftlink-lk/craftlink-api/services"
)

func main() {
	log.Println("Starting CraftLink API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if _, err := services.InitS3Service(); err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	hub := realtime.NewHub()
	controllers.SetHub(hub)
	go hub.Heartbeat(30 * time.Second)

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires every route group. Split from main so tests can mount
// the same surface against an in-memory database.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := middleware.EnsureValidToken(cfg)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		// The gateway webhook carries no user JWT
		v1.POST("/payments/callback", controllers.PaymentCallback)

		users := v1.Group("/users", auth)
		{
			users.POST("", controllers.CreateUser)
			users.GET("/me", controllers.GetMyProfile)
			users.PUT("/me", controllers.UpdateMyProfile)
		}

		conversations := v1.Group("/conversations", auth)
		{
			conversations.POST("", controllers.CreateConversation)
			conversations.GET("", controllers.ListConversations)
			conversations.POST("/:id/messages", controllers.SendMessage)
			conversations.GET("/:id/messages", controllers.ListMessages)
			conversations.POST("/:id/read", controllers.MarkConversationRead)
			conversations.PUT("/:id/status", controllers.UpdateConversationStatus)
			conversations.POST("/:id/join", controllers.JoinConversationAsAdmin)
			conversations.GET("/:id/quote", controllers.GetActiveQuote)
		}

		quotes := v1.Group("/quotes", auth)
		{
			quotes.POST("/request", controllers.RequestQuote)
			quotes.POST("", controllers.SendQuote)
			quotes.POST("/:id/acknowledge", controllers.AcknowledgeQuote)
			quotes.POST("/:id/accept", controllers.AcceptQuote)
			quotes.POST("/:id/reject", controllers.RejectQuote)
		}

		designs := v1.Group("/designs", auth)
		{
			designs.POST("", controllers.SubmitDesign)
			designs.GET("/:id", controllers.GetDesign)
			designs.POST("/:id/approve", controllers.ApproveDesign)
			designs.POST("/:id/reject", controllers.RejectDesign)
			designs.POST("/:id/request-changes", controllers.RequestDesignChanges)
		}

		orders := v1.Group("/orders", auth)
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("", controllers.ListOrders)
			orders.GET("/ready-to-ship", controllers.ListReadyToShip)
			orders.GET("/:id", controllers.GetOrder)
			orders.POST("/:id/process", controllers.ProcessOrder)
			orders.POST("/:id/ready-to-ship", controllers.MarkOrderReadyToShip)
			orders.POST("/:id/ship", controllers.ShipOrder)
			orders.POST("/:id/deliver", controllers.DeliverOrder)
			orders.POST("/:id/cancel", controllers.CancelOrder)
		}

		bookings := v1.Group("/bookings", auth)
		{
			bookings.POST("", controllers.CreateBooking)
			bookings.GET("", controllers.ListBookings)
			bookings.GET("/:id", controllers.GetBooking)
			bookings.POST("/:id/confirm", controllers.ConfirmBooking)
			bookings.POST("/:id/start", controllers.StartBooking)
			bookings.POST("/:id/complete", controllers.CompleteBooking)
			bookings.POST("/:id/cancel", controllers.CancelBooking)
		}

		returns := v1.Group("/returns", auth)
		{
			returns.POST("", controllers.FileReturn)
			returns.GET("", controllers.ListReturnHistory)
			returns.POST("/:id/review", controllers.ReviewReturn)
			returns.POST("/:id/seller-approve", controllers.SellerApproveReturn)
			returns.POST("/:id/seller-reject", controllers.SellerRejectReturn)
			returns.POST("/:id/admin-approve", controllers.AdminApproveReturn)
			returns.POST("/:id/admin-reject", controllers.AdminRejectReturn)
			returns.POST("/:id/refund", controllers.RefundReturn)
			returns.POST("/:id/complete", controllers.CompleteReturn)
		}

		boosts := v1.Group("/boosts", auth)
		{
			boosts.GET("/packages", controllers.ListBoostPackages)
			boosts.GET("/active", controllers.GetActiveBoost)
			boosts.POST("", controllers.PurchaseBoost)
			boosts.POST("/:id/slip", controllers.AttachBoostSlip)
			boosts.POST("/:id/confirm", controllers.ConfirmBoost)
			boosts.POST("/:id/fail", controllers.FailBoost)
			boosts.POST("/:id/cancel", controllers.CancelBoost)
		}

		notifications := v1.Group("/notifications", auth)
		{
			notifications.GET("", controllers.ListNotifications)
			notifications.GET("/unread-count", controllers.GetUnreadNotificationCount)
			notifications.POST("/:id/read", controllers.MarkNotificationRead)
			notifications.POST("/read-all", controllers.MarkAllNotificationsRead)
		}

		commissions := v1.Group("/commissions", auth)
		{
			commissions.GET("", controllers.ListCommissionEntries)
			commissions.GET("/balance", controllers.GetPayoutBalance)
		}

		uploads := v1.Group("/uploads", auth)
		{
			uploads.POST("", controllers.UploadFile)
			uploads.GET("/url", controllers.GetFileURL)
		}

		v1.GET("/ws", auth, controllers.ServeWS)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "CraftLink API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
