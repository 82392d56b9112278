package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Operation{Method: "GET", Path: "/v1/widget", Summary: "Widget model", Parameters: []any{QueryParam("component", "component path")}, Responses: map[string]any{"200": map[string]any{"description": "ok"}}})
	reg.Register(Operation{Method: "POST", Path: "/admin/configurations/{name}", Summary: "Save", Scopes: []string{"cpwidget:admin"}, Responses: map[string]any{"204": map[string]any{"description": "saved"}}})

	doc := reg.Build("widget-service", "1.0.0")
	paths := doc["paths"].(map[string]any)
	get := paths["/v1/widget"].(map[string]any)["get"].(map[string]any)
	assert.Len(t, get["parameters"], 1)
	post := paths["/admin/configurations/{name}"].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, []string{"cpwidget:admin"}, post["x-required-scopes"])

	rec := httptest.NewRecorder()
	reg.ServeHandler("widget-service", "1.0.0")(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	var served map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &served))
	assert.Equal(t, "3.1.0", served["openapi"])
}
