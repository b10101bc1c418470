// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"openseat/internal/http/handlers"
	"openseat/internal/http/middleware"
	"openseat/internal/infra"
	"openseat/internal/modules/booking"
	"openseat/internal/modules/matching"
	"openseat/internal/modules/payment"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
)

type RouterDeps struct {
	Trips       *trip.Service
	Search      *matching.Service
	Bookings    *booking.Service
	Tokens      *token.Service
	Payments    *payment.Service
	Users       *user.Service
	Verifier    infra.TokenVerifier
	CORSOrigins []string
	Log         *slog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(d.Log), middleware.Recovery(d.Log))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	searchHandler := handlers.NewSearchHandler(d.Search)
	tripHandler := handlers.NewTripHandler(d.Trips, d.Bookings)
	bookingHandler := handlers.NewBookingHandler(d.Bookings, d.Tokens)
	paymentHandler := handlers.NewPaymentHandler(d.Payments)
	userHandler := handlers.NewUserHandler(d.Users)

	// Gateway-facing and anonymous routes.
	public := r.Group("/api")
	public.GET("/search", searchHandler.Search)
	public.GET("/trips/:id", tripHandler.Get)
	public.GET("/drivers/:id/profile", tripHandler.DriverProfile)
	public.POST("/payments/webhook", paymentHandler.Webhook)
	public.POST("/payments/callback", paymentHandler.Callback)
	public.GET("/payments/test-card", paymentHandler.TestCard)

	api := r.Group("/api", middleware.Auth(d.Verifier))
	api.GET("/me", userHandler.Me)
	api.PUT("/me", userHandler.UpdateMe)

	driver := api.Group("", middleware.RequireRole(string(user.RoleDriver)))
	driver.POST("/vehicles", tripHandler.RegisterVehicle)
	driver.POST("/trips", tripHandler.Create)
	driver.GET("/trips", tripHandler.ListMine)
	driver.PATCH("/trips/:id", tripHandler.Update)
	driver.DELETE("/trips/:id", tripHandler.Delete)
	driver.GET("/trips/:id/bookings", tripHandler.Bookings)
	driver.POST("/bookings/:id/redeem", bookingHandler.Redeem)

	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.ListMine)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	api.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
	api.GET("/bookings/:id/token", bookingHandler.Token)
	api.GET("/bookings/:id/verify", bookingHandler.Verify)
	api.POST("/bookings/:id/verify-token", bookingHandler.VerifyToken)
	api.POST("/tokens/parse", bookingHandler.ParseQR)

	api.POST("/payments/initiate", paymentHandler.Initiate)
	api.GET("/payments/verify/:ref", paymentHandler.Verify)
	api.GET("/payments/booking/:id", paymentHandler.ForBooking)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}
