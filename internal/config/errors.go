// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrInvalidConfig classifies configurations rejected by Validate.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIncompatibleSchema is returned when the file declares a schemaVersion
	// this binary cannot serve.
	ErrIncompatibleSchema = errors.New("incompatible schema version")
)

// Issue is a single validation finding.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// ValidationError aggregates every issue found by Validate.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}
