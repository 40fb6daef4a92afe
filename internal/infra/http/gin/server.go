package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"directstay/internal/infra/config"
	"directstay/internal/infra/obs"
)

type SessionHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	Close(c *gin.Context)
	Notices(c *gin.Context)
}

type DraftHTTP interface {
	SetPeriod(c *gin.Context)
	SetCheckIn(c *gin.Context)
	SetCheckOut(c *gin.Context)
	SetQuantity(c *gin.Context)
	SetMonth(c *gin.Context)
	SetGuests(c *gin.Context)
	Submit(c *gin.Context)
}

type CheckoutHTTP interface {
	Proceed(c *gin.Context)
	Retry(c *gin.Context)
	Back(c *gin.Context)
	Resume(c *gin.Context)
	WidgetReport(c *gin.Context)
}

type PropertyHTTP interface {
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
}

type Handlers struct {
	Sessions   SessionHTTP
	Draft      DraftHTTP
	Checkout   CheckoutHTTP
	Properties PropertyHTTP
	Metrics    http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine. Split from NewServer so tests can drive it
// through httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	router.Use(ForwardBearer())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Properties != nil {
		api.GET("/properties/:id/calendar", h.Properties.Calendar)
		api.GET("/properties/:id/quote", h.Properties.Quote)
	}
	sessions := api.Group("/sessions")
	if h.Sessions != nil {
		sessions.POST("", h.Sessions.Open)
		sessions.GET("/:id", h.Sessions.Get)
		sessions.DELETE("/:id", h.Sessions.Close)
		sessions.GET("/:id/notices", h.Sessions.Notices)
	}
	if h.Draft != nil {
		draftGroup := sessions.Group("/:id/draft")
		draftGroup.PUT("/period", h.Draft.SetPeriod)
		draftGroup.PUT("/check-in", h.Draft.SetCheckIn)
		draftGroup.PUT("/check-out", h.Draft.SetCheckOut)
		draftGroup.PUT("/quantity", h.Draft.SetQuantity)
		draftGroup.PUT("/month", h.Draft.SetMonth)
		draftGroup.PUT("/guests", h.Draft.SetGuests)
		sessions.POST("/:id/submit", h.Draft.Submit)
	}
	if h.Checkout != nil {
		checkoutGroup := sessions.Group("/:id/checkout")
		checkoutGroup.POST("/proceed", h.Checkout.Proceed)
		checkoutGroup.POST("/retry", h.Checkout.Retry)
		checkoutGroup.POST("/back", h.Checkout.Back)
		checkoutGroup.GET("/resume", h.Checkout.Resume)
		checkoutGroup.POST("/widget", h.Checkout.WidgetReport)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
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
