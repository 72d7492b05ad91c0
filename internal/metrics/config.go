// Package metrics provides Prometheus metrics for dnegrid.
package metrics

import (
	"time"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reload results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Revision outcomes.
const (
	RevisionRecorded = "recorded"
	RevisionSkipped  = "skipped"
	RevisionError    = "error"
)

// No identifiers of the DNE tree in labels: project names are unbounded.
var (
	// ConfigReloadTotal counts reload attempts by trigger and result.
	ConfigReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnegrid_config_reload_total",
		Help: "Total number of configuration reload attempts, by source and result.",
	}, []string{"source", "result"})

	// ConfigEpoch is the epoch of the published snapshot.
	ConfigEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnegrid_config_epoch",
		Help: "Epoch of the currently published configuration snapshot.",
	})

	// ConfigLastApplied is the unix time the published snapshot was applied.
	ConfigLastApplied = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnegrid_config_last_applied_timestamp_seconds",
		Help: "Unix timestamp of the last applied configuration.",
	})

	// TreeSize reports the number of entries per container kind.
	TreeSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dnegrid_tree_entries",
		Help: "Number of entries in the published DNE tree, by kind (projects, branches, views, schedulers, change_filters).",
	}, []string{"kind"})

	// RevisionTotal counts history writes by outcome.
	RevisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnegrid_history_revisions_total",
		Help: "Total number of revision history writes, by outcome (recorded/skipped/error).",
	}, []string{"outcome"})

	// PluginConfigServed counts frontend config documents served per plugin.
	PluginConfigServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnegrid_plugin_config_served_total",
		Help: "Total number of plugin configuration documents served, by plugin.",
	}, []string{"plugin"})
)

// RecordReload counts one reload attempt.
func RecordReload(source string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	ConfigReloadTotal.WithLabelValues(source, result).Inc()
}

// ObserveSnapshot updates the gauges describing the published snapshot.
func ObserveSnapshot(epoch uint64, appliedAt time.Time, tree schema.Config) {
	ConfigEpoch.Set(float64(epoch))
	ConfigLastApplied.Set(float64(appliedAt.Unix()))

	counts := CountTree(tree)
	for kind, n := range counts {
		TreeSize.WithLabelValues(kind).Set(float64(n))
	}
}

// CountTree returns the entry counts reported by TreeSize.
func CountTree(tree schema.Config) map[string]int {
	counts := map[string]int{
		"projects":       len(tree.Projects),
		"branches":       0,
		"views":          0,
		"schedulers":     len(tree.Schedulers),
		"change_filters": 0,
	}
	for _, p := range tree.Projects {
		counts["branches"] += len(p.Branches)
		for _, b := range p.Branches {
			counts["views"] += len(b.Views)
		}
	}
	for _, s := range tree.Schedulers {
		if s.ChangeFilter != nil {
			counts["change_filters"]++
		}
	}
	return counts
}

// RecordRevision counts one history write outcome.
func RecordRevision(outcome string) {
	RevisionTotal.WithLabelValues(outcome).Inc()
}

// RecordPluginServed counts one served plugin config.
func RecordPluginServed(plugin string) {
	PluginConfigServed.WithLabelValues(plugin).Inc()
}
