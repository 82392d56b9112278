package problems

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	t.Setenv("PROBLEM_BASE_URL", "")
	t.Setenv("BASE_PUBLIC_URL", "https://cp.example.com/")
	assert.Equal(t, "https://cp.example.com/problems/missing-component", Type("missing-component"))

	t.Setenv("PROBLEM_BASE_URL", "https://errors.example.com/p/")
	assert.Equal(t, "https://errors.example.com/p/x", Type("x"))
}

func TestWrite(t *testing.T) {
	t.Setenv("PROBLEM_BASE_URL", "https://errors.example.com")
	rec := httptest.NewRecorder()
	Write(rec, http.StatusBadRequest, "bad-request", "Bad request", "component is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://errors.example.com/bad-request", body["type"])
	assert.Equal(t, "component is required", body["detail"])
	assert.EqualValues(t, 400, body["status"])
}
