// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldEpoch     = "epoch"
	FieldPlugin    = "plugin"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Configuration tree fields
	FieldProject   = "project"
	FieldBranch    = "branch"
	FieldView      = "view"
	FieldScheduler = "scheduler"

	// Path / URL fields
	FieldPath   = "path"
	FieldAddr   = "addr"
	FieldMethod = "method"
	FieldStatus = "status"
)
