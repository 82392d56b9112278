package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cpwidget/pkg/middleware"
	"cpwidget/pkg/openapi"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(), middleware.Recover(a.log), middleware.AccessLog(a.log), middleware.Tracing("cpwidget-admin-api"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	spec := openapi.NewRegistry()
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.CORS())
		ar.Use(middleware.Authenticate(a.cfg))
		ar.Use(middleware.RequireScope(AdminScope))
		ar.Get("/configurations", a.listConfigurations)
		ar.Post("/configurations", a.saveConfiguration)
		ar.Get("/configurations/{name}", a.getConfiguration)
		ar.Post("/configurations/{name}", a.saveConfiguration)
	})
	registerSpec(spec)
	r.Get("/openapi.json", spec.ServeHandler("cpwidget-admin-api", "1.0.0"))
	return r
}

func registerSpec(spec *openapi.Registry) {
	name := []any{openapi.PathParam("name", "Tenant configuration name")}
	spec.Register(openapi.Operation{Method: "GET", Path: "/admin/configurations", Summary: "List tenant configurations", Tags: []string{"admin"},
		Responses: map[string]any{"200": map[string]any{"description": "OK"}}, Scopes: []string{AdminScope}})
	spec.Register(openapi.Operation{Method: "GET", Path: "/admin/configurations/{name}", Summary: "Tenant configuration form", Tags: []string{"admin"},
		Parameters: name, Responses: map[string]any{"200": map[string]any{"description": "OK"}}, Scopes: []string{AdminScope}})
	spec.Register(openapi.Operation{Method: "POST", Path: "/admin/configurations/{name}", Summary: "Save tenant configuration", Tags: []string{"admin"},
		Parameters: name, Responses: map[string]any{"200": map[string]any{"description": "Saved"}, "400": map[string]any{"description": "Invalid field"}}, Scopes: []string{AdminScope}})
}
