// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Configuration attributes
	ConfigEpochKey      = "dne.config.epoch"
	ConfigSourceKey     = "dne.config.source"
	ConfigProjectsKey   = "dne.config.projects"
	ConfigSchedulersKey = "dne.config.schedulers"

	// Selection attributes
	SelectionProjectKey = "dne.selection.project"
	SelectionBranchKey  = "dne.selection.branch"
	SelectionViewKey    = "dne.selection.view"
	SelectionTagKey     = "dne.selection.tag"

	// Plugin attributes
	PluginNameKey = "dne.plugin.name"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ConfigAttributes describes the snapshot a request was served from.
func ConfigAttributes(epoch uint64, source string, projects, schedulers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(ConfigEpochKey, int64(epoch)),
		attribute.String(ConfigSourceKey, source),
		attribute.Int(ConfigProjectsKey, projects),
		attribute.Int(ConfigSchedulersKey, schedulers),
	}
}

// SelectionAttributes describes a resolved grid selection. Empty values are
// omitted.
func SelectionAttributes(project, branch, view, tag string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if project != "" {
		attrs = append(attrs, attribute.String(SelectionProjectKey, project))
	}
	if branch != "" {
		attrs = append(attrs, attribute.String(SelectionBranchKey, branch))
	}
	if view != "" {
		attrs = append(attrs, attribute.String(SelectionViewKey, view))
	}
	if tag != "" {
		attrs = append(attrs, attribute.String(SelectionTagKey, tag))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(ErrorKey, err.Error()),
		attribute.String(ErrorTypeKey, errorType),
	}
}
