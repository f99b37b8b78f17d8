package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"case-chat/internal/config"
	"case-chat/internal/handler"
	"case-chat/internal/logger"
	"case-chat/internal/middleware"
	"case-chat/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	var audit *service.AuditService
	if cfg.AuditEnabled() {
		db, err := cfg.OpenGormDB()
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		audit = service.NewAuditService(db)
		if err := audit.Migrate(); err != nil {
			logger.Error("audit migrate failed", "err", err)
			os.Exit(1)
		}
		logger.Info("webhook audit enabled", "host", cfg.Database.Host, "db", cfg.Database.Name)
	}

	webhookSvc := service.NewWebhookService(cfg.Webhook.BaseURL, cfg.WebhookTimeout())
	webhookH := handler.NewWebhookHandler(webhookSvc, audit, cfg.MaxUploadBytes())
	apiH := handler.NewAPIHandler(cfg.Server.PingMessage)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/ping", apiH.Ping)
	r.POST("/api/signup", apiH.Signup)
	r.POST("/api/chat", apiH.Chat)
	webhookH.Register(r.Group("/webhook"), middleware.RequireBearer([]byte(cfg.Auth.JWTSecret)))

	if dir := cfg.Server.StaticDir; dir != "" {
		files := http.FileServer(http.Dir(dir))
		index := filepath.Join(dir, "index.html")
		r.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if _, err := os.Stat(filepath.Join(dir, filepath.Clean(c.Request.URL.Path))); err == nil && c.Request.URL.Path != "/" {
				files.ServeHTTP(c.Writer, c.Request)
				return
			}
			c.File(index)
		})
		logger.Info("serving static files", "dir", dir)
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "webhook", cfg.Webhook.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
