package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/auth"
	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
	"github.com/Go-Pr0/stock-analyze-backend/internal/stockdata"
	"github.com/Go-Pr0/stock-analyze-backend/internal/store"
	"github.com/Go-Pr0/stock-analyze-backend/internal/telemetry"
	"github.com/Go-Pr0/stock-analyze-backend/provider"
)

// Run wires dependencies and serves the API until the listener fails.
func Run(cfg *config.Config, addr string) error {
	e := newEcho()

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		log.Printf("migrations: %v", err)
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	tele := telemetry.NewTelemetry(cfg.Telemetry)

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	var companyData research.CompanyDataProvider = stockdata.NewClient(cfg.StockData)
	if redisAddr := cfg.Storage.Redis.Addr(); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", redisAddr, err)
		}
		companyData = stockdata.NewCachedProvider(companyData, rdb, cfg.StockData.CacheTTL)
	}

	orch := research.NewOrchestrator(cfg, llm, companyData, tele)

	secret, err := auth.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	RegisterRoutes(e, cfg, st, orch, secret)

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware stack.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))
	return e
}

// RegisterRoutes mounts all API routes on e.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, st *store.Store, runner ReportRunner, secret []byte) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	ah := &AuthHandler{Store: st, Secret: secret, AdminEmail: cfg.Server.AdminEmail}
	ah.Register(api.Group("/auth"))

	protected := api.Group("/auth")
	protected.Use(auth.EchoAuthMiddleware(secret))
	ah.RegisterProtected(protected)

	rh := NewResearchHandler(st, runner, cfg.Server.MockAI)
	researchGroup := api.Group("/research")
	researchGroup.Use(auth.EchoAuthMiddleware(secret))
	rh.Register(researchGroup)

	admh := &AdminHandler{Store: st}
	adminGroup := api.Group("/admin")
	adminGroup.Use(auth.EchoAuthMiddleware(secret), auth.RequireAdmin())
	admh.Register(adminGroup)
}
