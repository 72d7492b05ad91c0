// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/ManuGH/dnegrid/internal/cronexpr"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/rs/zerolog"
)

// Validate checks the effective configuration and returns a *ValidationError
// listing every problem, or nil.
func Validate(cfg AppConfig) error {
	v := &ValidationError{}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		v.add("listenAddr", "invalid listen address %q: %v", cfg.ListenAddr, err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || strings.TrimSpace(cfg.LogLevel) == "" {
		v.add("logLevel", "unknown log level %q", cfg.LogLevel)
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			v.add("rateLimit.rps", "must be > 0 when rate limiting is enabled (got %d)", cfg.RateLimit.RPS)
		}
		if cfg.RateLimit.Burst <= 0 {
			v.add("rateLimit.burst", "must be > 0 when rate limiting is enabled (got %d)", cfg.RateLimit.Burst)
		}
		for i, entry := range cfg.RateLimit.Exempt {
			if !validExemptEntry(entry) {
				v.add(fmt.Sprintf("rateLimit.exempt[%d]", i), "%q is neither an IP address nor a CIDR prefix", entry)
			}
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			v.add("tracing.exporter", "unsupported exporter %q (supported: grpc, http)", cfg.Tracing.Exporter)
		}
		if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
			v.add("tracing.endpoint", "required when tracing is enabled")
		}
	}
	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		v.add("tracing.samplingRate", "must be within [0, 1] (got %g)", cfg.Tracing.SamplingRate)
	}

	if cfg.BuildFetchLimit < 1 {
		v.add("plugin.buildFetchLimit", "must be >= 1 (got %d)", cfg.BuildFetchLimit)
	}

	validateDNE(v, cfg.DNE)
	return v.errOrNil()
}

// ValidateDNE checks identifier uniqueness and cron syntax of a DNE tree.
// Change filter project/branch names are deliberately not resolved.
func ValidateDNE(tree schema.Config) error {
	v := &ValidationError{}
	validateDNE(v, tree)
	return v.errOrNil()
}

func validateDNE(v *ValidationError, tree schema.Config) {
	projects := make(map[string]int, len(tree.Projects))
	for pi, p := range tree.Projects {
		field := fmt.Sprintf("dne.projects[%d]", pi)
		checkIdentifier(v, field+".identifier", p.Identifier, projects, pi)

		branches := make(map[string]int, len(p.Branches))
		for bi, b := range p.Branches {
			bfield := fmt.Sprintf("%s.branches[%d]", field, bi)
			checkIdentifier(v, bfield+".identifier", b.Identifier, branches, bi)

			views := make(map[string]int, len(b.Views))
			for vi, view := range b.Views {
				vfield := fmt.Sprintf("%s.views[%d]", bfield, vi)
				checkIdentifier(v, vfield+".identifier", view.Identifier, views, vi)
			}
		}
	}

	names := make(map[string]int, len(tree.Schedulers))
	for si, s := range tree.Schedulers {
		field := fmt.Sprintf("dne.schedulers[%d]", si)
		checkIdentifier(v, field+".name", s.Name, names, si)

		for _, b := range s.BuilderNames {
			if strings.TrimSpace(b) == "" {
				v.add(field+".builder_names", "builder name must not be empty")
				break
			}
		}
		if s.Cron != nil {
			if err := cronexpr.Validate(*s.Cron); err != nil {
				v.add(field+".cron", "%v", err)
			}
		}
		if s.ForceCron != nil {
			if err := cronexpr.Validate(*s.ForceCron); err != nil {
				v.add(field+".force_cron", "%v", err)
			}
		}
	}
}

func checkIdentifier(v *ValidationError, field, id string, seen map[string]int, idx int) {
	if strings.TrimSpace(id) == "" {
		v.add(field, "must not be empty")
		return
	}
	if first, dup := seen[id]; dup {
		v.add(field, "duplicate %q (first defined at index %d)", id, first)
		return
	}
	seen[id] = idx
}

func validExemptEntry(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}
