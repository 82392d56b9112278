// cmd/widget-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cpwidget/internal/catalog"
	"cpwidget/internal/resolver"
	"cpwidget/internal/token"
	"cpwidget/internal/widget"
	"cpwidget/pkg/config"
	"cpwidget/pkg/content"
	"cpwidget/pkg/db"
	"cpwidget/pkg/logger"
	"cpwidget/pkg/metrics"
	"cpwidget/pkg/middleware"
	"cpwidget/pkg/openapi"
	"cpwidget/pkg/profiles"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	middleware.InitTracing("cpwidget-widget-service")
	ctx := context.Background()
	seed, err := content.LoadSeed(cfg.ContentSeedFile)
	if err != nil {
		log.Fatalw("seed", "err", err)
	}

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var tree content.Tree
	if pool != nil {
		if err := content.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		if err := content.SeedNodes(ctx, pool, seed.Nodes); err != nil {
			log.Warnw("seed nodes", "err", err)
		}
		tree = content.NewPostgresTree(pool, log)
	} else {
		tree = content.NewMemoryTree(log, seed.Nodes)
	}

	// Token fields live next to the profile: redis when available, else postgres, else memory.
	var store profiles.Store
	switch {
	case rdb != nil:
		if err := profiles.SeedRedis(ctx, rdb, seed.Emails()); err != nil {
			log.Warnw("seed profiles", "err", err)
		}
		store = profiles.NewRedisStore(rdb)
	case pool != nil:
		if err := profiles.SeedPostgres(ctx, pool, seed.Emails()); err != nil {
			log.Warnw("seed profiles", "err", err)
		}
		store = profiles.NewPostgresStore(pool)
	default:
		store = profiles.NewMemoryStore(seed.Emails())
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	client := &http.Client{Timeout: cfg.HTTPTimeout, Transport: middleware.Transport(nil)}

	res := resolver.New(tree, log, cfg.MaxInheritDepth)
	cat := catalog.New(log, catalog.Options{TTL: cfg.CatalogTTL, Client: client, Metrics: m})
	tokens := token.NewService(
		token.NewStore(store, log, nil),
		token.NewIssuer(log, token.IssuerOptions{Client: client, Buffer: cfg.TokenExpiryBuffer}),
		store, log, m, nil)
	rd := widget.NewRenderer(tree, res, cat, tokens, cfg.DefaultHostName, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.CORS())
	r.Use(middleware.Tracing("cpwidget-widget-service"))
	r.Use(middleware.Authenticate(cfg))

	spec := openapi.NewRegistry()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	widget.RegisterRoutes(r, rd, spec)
	r.Get("/openapi.json", spec.ServeHandler("cpwidget-widget-service", "1.0.0"))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("widget-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	fmt.Println("widget-service stopped")
}
