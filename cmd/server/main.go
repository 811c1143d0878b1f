package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api"
	"github.com/cx-tal-miterani/flight-booking-client/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-client/internal/config"
	"github.com/cx-tal-miterani/flight-booking-client/internal/handlers"
	"github.com/cx-tal-miterani/flight-booking-client/internal/router"
	"github.com/cx-tal-miterani/flight-booking-client/internal/session"
	"github.com/cx-tal-miterani/flight-booking-client/internal/web"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration failed")
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.WithError(err).Fatal("parsing templates failed")
	}

	client := api.NewClient(cfg.APIBaseURL, http.DefaultClient, log)
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	bookings := booking.NewManager(client, log)

	h := handlers.NewHandler(client, sessions, bookings, renderer, log)
	r := router.New(h, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"backend": cfg.APIBaseURL,
		}).Info("booking frontend starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
