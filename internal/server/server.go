package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/config"
	"github.com/tikitihq/tikiti/internal/booking"
	"github.com/tikitihq/tikiti/internal/cache"
	"github.com/tikitihq/tikiti/internal/handlers"
	"github.com/tikitihq/tikiti/internal/middleware"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	bookingService := booking.NewService(db, booking.Config{HoldWindow: cfg.HoldWindow})
	sweeper := booking.NewSweeper(db, cfg.SweepInterval, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	var eventsCache *cache.EventsCache
	if rdb := config.InitRedis(cfg); rdb != nil {
		eventsCache = cache.NewEventsCache(rdb, 30*time.Second)
	}

	r := gin.Default()

	setupRoutes(r, db, eventsCache, bookingService, sweeper)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, eventsCache *cache.EventsCache, bookingService *booking.Service, sweeper *booking.Sweeper) {
	r.Use(middleware.DatabaseMiddleware(db))
	if eventsCache != nil {
		r.Use(middleware.CacheMiddleware(eventsCache))
	}

	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(bookingService)
	adminHandler := handlers.NewAdminHandler(bookingService, sweeper)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "postgres", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		public.GET("/tickets/:id", handlers.GetTicket)
		public.GET("/bookings/:id", bookingHandler.Get)
		public.POST("/payments", paymentHandler.Create)
	}

	// Booking creation allows guests; a valid token attaches the owner.
	optional := r.Group("/v1")
	optional.Use(middleware.OptionalAuthMiddleware())
	{
		optional.POST("/bookings", bookingHandler.Create)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/auth/me", handlers.Me)
		protected.GET("/bookings", bookingHandler.ListMine)
		protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)
		protected.GET("/bookings/:id/qr", handlers.GenerateBookingQR)
		protected.GET("/users/:id", handlers.GetUser)
		protected.PUT("/users/:id", handlers.UpdateUser)
	}

	admin := r.Group("/v1")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.AdminRequired())
	{
		eventAdmin := admin.Group("/events")
		{
			eventAdmin.POST("", handlers.CreateEvent)
			eventAdmin.PUT("/:id", handlers.UpdateEvent)
			eventAdmin.DELETE("/:id", handlers.DeleteEvent)
		}

		ticketAdmin := admin.Group("/tickets")
		{
			ticketAdmin.POST("", handlers.CreateTicket)
			ticketAdmin.PUT("/:id", handlers.UpdateTicket)
			ticketAdmin.DELETE("/:id", handlers.DeleteTicket)
		}

		admin.POST("/bookings/:id/confirm", bookingHandler.Confirm)
		admin.GET("/admin/bookings", adminHandler.ListBookings)
		admin.GET("/admin/analytics", adminHandler.Analytics)
		admin.POST("/admin/bookings/sweep", adminHandler.Sweep)
		admin.POST("/admin/checkin", handlers.CheckIn)
		admin.POST("/users/:id/points", handlers.AddPoints)
	}
}
