package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doko3000/internal/broker"
	"doko3000/internal/config"
	"doko3000/internal/database"
	"doko3000/internal/game"
	"doko3000/internal/protocol"
	"doko3000/internal/server"
	"doko3000/internal/service"

	log "github.com/sirupsen/logrus"
)

const serviceName = "doko3000"

func main() {
	cfg := config.Load(".env")
	config.Logging(serviceName, cfg.LogLevel, cfg.LogDir)
	instanceID := config.InstanceID()
	log.Infof("Starting %s, instance %s...", serviceName, instanceID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, database.Options{
		Driver:   cfg.StoreDriver,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
		SQLDSN:   cfg.SQLDSN,
	})
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warnf("Closing store failed: %v", err)
		}
	}()
	log.Infof("%s store opened.", cfg.StoreDriver)

	svc := service.New(game.New(game.WithNine(cfg.WithNine)), store)
	hub := server.NewHub(svc)

	if cfg.NatsURL != "" {
		b, err := broker.Connect(cfg.NatsURL, cfg.NatsToken, serviceName+"-"+instanceID)
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		defer b.Close()
		if err := b.Subscribe(func(ev protocol.Event) {
			if err := hub.Publish(ev); err != nil {
				log.Debugf("Dropped %s: %v", ev.Name, err)
			}
		}); err != nil {
			log.Fatalf("Error: unable to subscribe %v", err)
		}
		svc.SetPublisher(b)
		log.Infof("NATS connection established successfully %s", b.Url)
	} else {
		svc.SetPublisher(hub)
	}

	if err := svc.Load(ctx, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to load game: %v", err)
	}
	defer svc.Close()

	go hub.Run(ctx)

	h := server.NewHandler(ctx, svc, hub, cfg)
	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     h.Router(cfg),
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s running at port %s", serviceName, srv.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s shutdown failed: %+v", serviceName, err)
	}
	log.Infof("%s gracefully stopped", serviceName)
}
