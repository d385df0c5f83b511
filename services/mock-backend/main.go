package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/config"
	"github.com/kollcibe05-creator/Vetty/internal/mockbackend"
	"github.com/kollcibe05-creator/Vetty/internal/shutdown"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	gin.SetMode(gin.ReleaseMode)

	backend := mockbackend.New(mockbackend.DefaultCatalog())
	router := backend.Router()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	log.WithField("addr", cfg.MockListenAddr).Info("Mock Backend starting")

	srv := &http.Server{Addr: cfg.MockListenAddr, Handler: router}
	if err := shutdown.Serve(ctx, srv); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
