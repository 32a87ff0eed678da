package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Menu      *catalog.Menu
	Sessions  *session.Manager
	Publisher *aws.Publisher // bill export queue; may be disabled
	Metrics   *aws.Metrics   // may be nil
	Logger    *zap.Logger
	DemoMode  bool // echo verification codes in responses
	Now       func() time.Time
}

type api struct {
	cfg      HandlerConfig
	validate *validatorv10.Validate
	log      *zap.Logger
}

// RegisterRoutes registers the menu, table and session routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &api{cfg: cfg, validate: validation.New(), log: cfg.Logger}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/menu", a.getMenu)
	r.GET("/tables/:tableId", a.getTable)
	r.POST("/tables/:tableId/sessions", a.createSession)

	s := r.Group("/sessions/:id")
	s.GET("", a.getSession)
	s.DELETE("", a.deleteSession)
	s.POST("/items", a.addItem)
	s.DELETE("/items/:itemId", a.removeItem)
	s.PUT("/items/:itemId", a.setQuantity)
	s.POST("/checkout", a.checkout)
	s.POST("/payment", a.pay)
	s.POST("/otp/resend", a.resendCode)
	s.POST("/otp/verify", a.verify)
	s.POST("/bill", a.generateBill)
	s.GET("/bill/download", a.downloadBill)
	s.POST("/close", a.closeStep)
	s.POST("/clear", a.clear)
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (a *api) count(ctx context.Context, name, table string) {
	if err := a.cfg.Metrics.Count(ctx, name, table, 1); err != nil {
		a.log.Warn("metric publish failed", zap.String("metric", name), zap.Error(err))
	}
}
