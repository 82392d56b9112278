package widget

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cpwidget/pkg/content"
	"cpwidget/pkg/middleware"
	"cpwidget/pkg/openapi"
	"cpwidget/pkg/problems"
)

// RegisterRoutes mounts the widget model endpoints.
// GET /v1/widget?component=<path>          page model
// GET /v1/widgets?component=<path>         selectable widgets
// GET /v1/widget/dialog?component=<path>   author dialog fields
func RegisterRoutes(r chi.Router, rd *Renderer, spec *openapi.Registry) {
	r.Get("/v1/widget", func(w http.ResponseWriter, req *http.Request) {
		path, ok := componentParam(w, req)
		if !ok {
			return
		}
		id := middleware.IdentityFrom(req.Context())
		v, err := rd.Render(req.Context(), Request{ComponentPath: path, UserID: id.UserID, Email: id.Email})
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, v)
	})
	r.Get("/v1/widgets", func(w http.ResponseWriter, req *http.Request) {
		path, ok := componentParam(w, req)
		if !ok {
			return
		}
		opts := rd.WidgetOptions(req.Context(), path)
		if opts == nil {
			opts = []Option{}
		}
		writeJSON(w, map[string]any{"items": opts})
	})
	r.Get("/v1/widget/dialog", func(w http.ResponseWriter, req *http.Request) {
		path, ok := componentParam(w, req)
		if !ok {
			return
		}
		fields, err := rd.DialogFields(req.Context(), path)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, map[string]any{"fields": fields})
	})

	if spec == nil {
		return
	}
	param := []any{openapi.QueryParam("component", "Repository path of the widget component")}
	ok := map[string]any{"200": map[string]any{"description": "OK"}, "400": map[string]any{"description": "Missing component"}}
	spec.Register(openapi.Operation{Method: "GET", Path: "/v1/widget", Summary: "Widget page model", Tags: []string{"widget"}, Parameters: param, Responses: ok})
	spec.Register(openapi.Operation{Method: "GET", Path: "/v1/widgets", Summary: "Selectable widgets", Tags: []string{"widget"}, Parameters: param, Responses: ok})
	spec.Register(openapi.Operation{Method: "GET", Path: "/v1/widget/dialog", Summary: "Author dialog fields", Tags: []string{"widget"}, Parameters: param, Responses: ok})
}

func componentParam(w http.ResponseWriter, req *http.Request) (string, bool) {
	path := req.URL.Query().Get("component")
	if path == "" {
		problems.Write(w, http.StatusBadRequest, "missing-component", "Missing component", "query parameter component is required")
		return "", false
	}
	return content.Clean(path), true
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, content.ErrNotFound) {
		problems.Write(w, http.StatusNotFound, "component-not-found", "Component not found", "")
		return
	}
	problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
