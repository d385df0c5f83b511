package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/cart"
	"github.com/kollcibe05-creator/Vetty/internal/config"
	"github.com/kollcibe05-creator/Vetty/internal/httpapi"
	"github.com/kollcibe05-creator/Vetty/internal/payment"
	"github.com/kollcibe05-creator/Vetty/internal/remote"
	"github.com/kollcibe05-creator/Vetty/internal/shutdown"
	"github.com/kollcibe05-creator/Vetty/internal/uistate"
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

	client := remote.New(remote.Options{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.RequestTimeout,
		BulkheadSize: cfg.BulkheadSize,
		BulkheadWait: cfg.BulkheadWait,
	})
	bus := uistate.New(uistate.WithDefaultDuration(cfg.NotificationDuration))
	defer bus.Close()

	store := cart.NewStore(client, bus)
	server := &httpapi.Server{
		Store:     store,
		Payments:  payment.NewInitiator(client, bus),
		UI:        bus,
		ModalForm: payment.NewModalForm(),
		PageForm:  payment.NewStandaloneForm(),
		Circuits:  client.CircuitStatus,
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Initial load is best effort; a failure is already on the bus
	if err := store.Load(ctx); err != nil {
		log.WithError(err).Warn("Initial cart load failed")
	}

	log.WithFields(log.Fields{
		"addr":        cfg.ListenAddr,
		"backend_url": cfg.BackendURL,
	}).Info("Storefront Service starting")

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: server.Router()}
	if err := shutdown.Serve(ctx, srv); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
