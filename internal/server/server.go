package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tanklab/gasworks/internal/config"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	"github.com/tanklab/gasworks/internal/observability/metrics"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *metrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(metrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, m *metrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	return NewEngine(log.Named("http"), m, reg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	gasRepo    gasdomain.Repository
	pricingSvc pricingdomain.Service
	fillSvc    filleventdomain.Service
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
	webhooks   paymentdomain.WebhookCodec
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	GasRepo    gasdomain.Repository
	PricingSvc pricingdomain.Service
	FillSvc    filleventdomain.Service
	InvoiceSvc invoicedomain.Service
	PaymentSvc paymentdomain.Service
	Webhooks   paymentdomain.WebhookCodec
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		db:         p.DB,
		gasRepo:    p.GasRepo,
		pricingSvc: p.PricingSvc,
		fillSvc:    p.FillSvc,
		invoiceSvc: p.InvoiceSvc,
		paymentSvc: p.PaymentSvc,
		webhooks:   p.Webhooks,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.IdentityRequired())

	// -------- Gases --------
	api.GET("/gases", s.ListGases)

	// -------- Prices --------
	api.GET("/prices", s.ListPrices)
	api.POST("/prices", s.AdminRequired(), s.CreatePrice)

	// -------- Fill events --------
	api.POST("/fill-events", s.CreateFillEvent)
	api.GET("/fill-events", s.ListFillEvents)
	api.GET("/fill-events/unpaid", s.ListUnpaidFillEvents)

	// -------- Invoices --------
	api.GET("/invoices", s.AdminRequired(), s.ListInvoices)
	api.POST("/invoices/payment-events", s.AdminRequired(), s.CreateInvoicePaymentEvents)

	// -------- Payment events --------
	api.POST("/payment-events", s.CreatePaymentEvent)
	api.GET("/payment-events/:id", s.GetPaymentEvent)
	api.POST("/payment-events/:id/intent", s.CreatePaymentIntent)
}

func (s *Server) registerWebhookRoutes() {
	// Webhooks authenticate by signature, not by caller identity.
	s.engine.POST("/webhooks/stripe", s.HandleStripeWebhook)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
