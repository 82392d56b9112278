package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cpwidget/internal/adminapi"
	"cpwidget/internal/catalog"
	"cpwidget/internal/resolver"
	"cpwidget/pkg/config"
	"cpwidget/pkg/content"
	pdb "cpwidget/pkg/db"
	"cpwidget/pkg/logger"
	"cpwidget/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	middleware.InitTracing("cpwidget-admin-api")
	ctx := context.Background()
	var tree content.Tree
	if pool := pdb.MustConnect(cfg, log); pool != nil {
		if err := content.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		tree = content.NewPostgresTree(pool, log)
	} else {
		// Dev only: edits live as long as the process.
		seed, err := content.LoadSeed(cfg.ContentSeedFile)
		if err != nil {
			log.Fatalw("seed", "err", err)
		}
		tree = content.NewMemoryTree(log, seed.Nodes)
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout, Transport: middleware.Transport(nil)}
	app := adminapi.New(log, cfg, tree,
		resolver.New(tree, log, cfg.MaxInheritDepth),
		catalog.New(log, catalog.Options{TTL: cfg.CatalogTTL, Client: client}))

	srv := &http.Server{Addr: cfg.AdminAddr, Handler: app.Handler()}
	go func() {
		log.Infof("admin-api listening at %s", cfg.AdminAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
