// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/dnegrid/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Shape(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plugins/nope", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	NotFound(w, req, `plugin "nope" is not registered`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "Not Found", body["title"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, CodeNotFound, body["code"])
	assert.Equal(t, "req-1", body[JSONKeyRequestID])
	assert.Equal(t, "/api/v1/plugins/nope", body["instance"])
	assert.Contains(t, body["detail"], "nope")
}

func TestWrite_ExtrasCannotOverrideReservedKeys(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()

	Write(w, req, http.StatusBadRequest, TypeInvalidInput, "Invalid Input", CodeInvalidInput, "", map[string]any{
		"status":    200,
		"parameter": "limit",
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "limit", body["parameter"])
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}

func TestWrite_FallsBackToResponseHeaderID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	w.Header().Set(HeaderRequestID, "from-header")

	Internal(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "from-header", body[JSONKeyRequestID])
	assert.Equal(t, CodeInternal, body["code"])
}
