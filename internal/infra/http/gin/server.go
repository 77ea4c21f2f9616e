package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentgate/internal/infra/config"
	"rentgate/internal/infra/obs"
)

type AuthHTTP interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type ReservationHTTP interface {
	Create(c *gin.Context)
	Update(c *gin.Context)
	Cancel(c *gin.Context)
	Archive(c *gin.Context)
	ValidateArrival(c *gin.Context)
	ConfirmPayment(c *gin.Context)
	Get(c *gin.Context)
	Contact(c *gin.Context)
	ListMine(c *gin.Context)
	ListHosted(c *gin.Context)
}

type TransactionHTTP interface {
	Record(c *gin.Context)
	List(c *gin.Context)
	Update(c *gin.Context)
	AttachReceipt(c *gin.Context)
	Receipt(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Update(c *gin.Context)
}

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Reservations   ReservationHTTP
	Transactions   TransactionHTTP
	Availability   AvailabilityHTTP
	Quotes         QuoteHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Reservations != nil {
		api.POST("/reservations", h.Reservations.Create)
		api.GET("/reservations/:id", h.Reservations.Get)
		api.PATCH("/reservations/:id", h.Reservations.Update)
		api.PATCH("/reservations/:id/cancel", h.Reservations.Cancel)
		api.PATCH("/reservations/:id/archive", h.Reservations.Archive)
		api.PATCH("/reservations/:id/validate-arrival", h.Reservations.ValidateArrival)
		api.PATCH("/reservations/:id/confirm-payment", h.Reservations.ConfirmPayment)
		api.GET("/reservations/:id/contact", h.Reservations.Contact)
		api.GET("/me/reservations", h.Reservations.ListMine)
		api.GET("/host/reservations", h.Reservations.ListHosted)
	}
	if h.Transactions != nil {
		api.POST("/reservations/:id/transactions", h.Transactions.Record)
		api.GET("/reservations/:id/transactions", h.Transactions.List)
		api.PATCH("/transactions/:id", h.Transactions.Update)
		api.POST("/transactions/:id/receipt", h.Transactions.AttachReceipt)
		api.GET("/receipts/*key", h.Transactions.Receipt)
	}
	if h.Availability != nil {
		api.GET("/availability/:listingId", h.Availability.Calendar)
		api.POST("/availability/update", h.Availability.Update)
	}
	if h.Quotes != nil {
		api.GET("/listings/:id/quote", h.Quotes.Quote)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
