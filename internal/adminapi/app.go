package adminapi

import (
	"go.uber.org/zap"

	"cpwidget/internal/catalog"
	"cpwidget/internal/resolver"
	"cpwidget/pkg/config"
	"cpwidget/pkg/content"
)

// AdminScope is required on every /admin route.
const AdminScope = "cpwidget:admin"

// App is the admin-api application container.
// Handlers and middleware have methods on this type.
//
// Keep it lean: shared deps and config only.
// Request-scoped work should use context.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	tree     content.Tree
	resolver *resolver.Resolver
	catalog  *catalog.Cache
}

// New constructs App. The settings form always describes the catalog of the
// default host, whichever host the edited configuration names.
func New(log *zap.SugaredLogger, cfg config.Config, tree content.Tree, res *resolver.Resolver, cat *catalog.Cache) *App {
	return &App{log: log, cfg: cfg, tree: tree, resolver: res, catalog: cat}
}
