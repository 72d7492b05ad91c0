// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestConfigAttributes(t *testing.T) {
	attrs := ConfigAttributes(7, "watcher", 3, 5)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}
	verifyIntAttribute(t, attrs, ConfigEpochKey, 7)
	verifyAttribute(t, attrs, ConfigSourceKey, "watcher")
	verifyIntAttribute(t, attrs, ConfigProjectsKey, 3)
	verifyIntAttribute(t, attrs, ConfigSchedulersKey, 5)
}

func TestSelectionAttributes(t *testing.T) {
	tests := []struct {
		name    string
		project string
		branch  string
		view    string
		tag     string
		wantLen int
	}{
		{name: "all fields", project: "p1", branch: "main", view: "v1", tag: "p1-main", wantLen: 4},
		{name: "project only", project: "p1", tag: "p1-", wantLen: 2},
		{name: "empty", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := SelectionAttributes(tt.project, tt.branch, tt.view, tt.tag)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.project != "" {
				verifyAttribute(t, attrs, SelectionProjectKey, tt.project)
			}
		})
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("test error"), "validation")
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, ErrorKey, "test error")
	verifyAttribute(t, attrs, ErrorTypeKey, "validation")

	if got := ErrorAttributes(nil, "validation"); got != nil {
		t.Errorf("Expected nil attributes for nil error, got %v", got)
	}
}

func TestAttributeKeys_Namespaced(t *testing.T) {
	keys := []string{
		ConfigEpochKey, ConfigSourceKey, ConfigProjectsKey, ConfigSchedulersKey,
		SelectionProjectKey, SelectionBranchKey, SelectionViewKey, SelectionTagKey,
		PluginNameKey,
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "dne.") {
			t.Errorf("attribute key %q is not namespaced", key)
		}
	}
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, want string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if got := attr.Value.AsString(); got != want {
				t.Errorf("attribute %s = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, want int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if got := attr.Value.AsInt64(); got != want {
				t.Errorf("attribute %s = %d, want %d", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}
