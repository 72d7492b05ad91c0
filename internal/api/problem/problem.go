// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/dnegrid/internal/log"
)

const (
	// HeaderRequestID carries the correlation id on requests and responses.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body key holding the correlation id.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of problem responses.
	ContentType = "application/problem+json"
)

// Problem types and codes served by the API.
const (
	TypeNotFound        = "dne/not_found"
	TypeInvalidInput    = "dne/invalid_input"
	TypeConfigRejected  = "dne/config_rejected"
	TypeHistoryDisabled = "dne/history_disabled"
	TypeRateLimited     = "dne/rate_limited"
	TypeForbidden       = "dne/forbidden"
	TypeMethod          = "dne/method_not_allowed"
	TypeInternal        = "dne/internal"

	CodeNotFound        = "NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeConfigRejected  = "CONFIG_REJECTED"
	CodeHistoryDisabled = "HISTORY_DISABLED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeForbidden       = "FORBIDDEN"
	CodeMethod          = "METHOD_NOT_ALLOWED"
	CodeInternal        = "INTERNAL_ERROR"
)

// Details is the RFC 7807 body. Extensions are flattened next to the
// standard members and can never replace them.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"requestId"`

	Extensions map[string]any `json:"-"`
}

// MarshalJSON merges Extensions into the object, dropping any that collide
// with a standard member.
func (d Details) MarshalJSON() ([]byte, error) {
	type plain Details
	std, err := json.Marshal(plain(d))
	if err != nil || len(d.Extensions) == 0 {
		return std, err
	}
	merged := make(map[string]any, len(d.Extensions)+7)
	for k, v := range d.Extensions {
		merged[k] = v
	}
	var members map[string]any
	if err := json.Unmarshal(std, &members); err != nil {
		return nil, err
	}
	for k, v := range members {
		if _, clash := merged[k]; clash {
			log.L().Warn().Str("key", k).Str("problem_type", d.Type).Msg("ignoring reserved key in problem extras")
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Write sends a problem response. type is the machine identifier such as
// "dne/not_found", code its stable short form. The request ID is taken from
// the context, else from a header already set on w.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	d := Details{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Code:       code,
		Detail:     detail,
		Extensions: extra,
	}
	if r != nil {
		d.Instance = r.URL.EscapedPath()
		d.RequestID = log.RequestIDFromContext(r.Context())
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(HeaderRequestID)
	}

	if d.RequestID != "" {
		w.Header().Set(HeaderRequestID, d.RequestID)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		log.L().Error().Err(err).Str("type", problemType).Int(log.FieldStatus, status).Msg("failed to encode problem response")
	}
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusNotFound, TypeNotFound, "Not Found", CodeNotFound, detail, nil)
}

// InvalidInput writes a 400 problem naming the offending parameter.
func InvalidInput(w http.ResponseWriter, r *http.Request, param, detail string) {
	Write(w, r, http.StatusBadRequest, TypeInvalidInput, "Invalid Input", CodeInvalidInput, detail, map[string]any{"parameter": param})
}

// Internal writes a 500 problem without leaking err to the client.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, TypeInternal, "Internal Server Error", CodeInternal,
		"An unexpected error occurred. Please try again later.", nil)
}
