package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/research"
	"github.com/mikeboe/sensight/pkg/server"
)

func main() {
	var h slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if os.Getenv("LOG_FORMAT") == "json" {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(server.NewRedactHandler(h))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	engine, err := research.NewEngine(cfg)
	if err != nil {
		slog.Error("Failed to init engine", "error", err)
		os.Exit(1)
	}

	svc := server.NewService(engine, cfg)
	handler := server.NewHandler(svc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(server.RequestLogger(logger))

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"}, // Allow all for dev
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", server.APIKeyHeader, "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "Mcp-Session-Id"},
	}))

	handler.RegisterRoutes(r)

	slog.Info("Server starting",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"models", cfg.Models,
		"search", !cfg.Search.Disabled,
		"credential_configured", cfg.APIKeyFor(cfg.Provider) != "",
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
