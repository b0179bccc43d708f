package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TimurManjosov/goendpoint/internal/api"
	"github.com/TimurManjosov/goendpoint/internal/auth"
	"github.com/TimurManjosov/goendpoint/internal/config"
	"github.com/TimurManjosov/goendpoint/internal/partitions"
	"github.com/TimurManjosov/goendpoint/internal/snapshot"
	"github.com/TimurManjosov/goendpoint/internal/store"
	"github.com/TimurManjosov/goendpoint/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	telemetry.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewStore(ctx, cfg.StoreType, store.Options{
		DSN: cfg.DatabaseDSN,
		Dir: cfg.RulesetDir,
		Env: cfg.Env,
	})
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	authn := auth.NewAuthenticator(cfg.AdminAPIKey, cfg.AdminAPIKeyHash)
	srvAPI := api.NewServer(st, cfg.Env, authn, partitions.Default())

	// initial snapshot
	if err := srvAPI.RebuildSnapshot(ctx); err != nil {
		log.Fatalf("load rulesets: %v", err)
	}
	s := snapshot.Load()
	log.Printf("snapshot: %d rulesets, etag=%s", len(s.Rulesets), s.ETag)

	// one log line per snapshot change, whether from an admin upsert or a
	// file reload
	updates, unsub := snapshot.Subscribe()
	defer unsub()
	go func() {
		for etag := range updates {
			log.Printf("snapshot: updated, etag=%s", etag)
		}
	}()

	// file store: rebuild the snapshot when documents change on disk
	if fs, ok := st.(*store.FileStore); ok {
		go func() {
			err := fs.Watch(ctx, func() {
				if err := srvAPI.RebuildSnapshot(ctx); err != nil {
					log.Printf("snapshot rebuild: %v", err)
				}
			})
			if err != nil {
				log.Printf("watch: %v", err)
			}
		}()
	}

	// metrics endpoint on its own listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("metrics on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = srv.Shutdown(ctxShut)
	log.Println("stopped")
}
