// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultBuildFetchLimit, cfg.BuildFetchLimit)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "test", cfg.Version)
	assert.NotNil(t, cfg.DNE.Projects)
	assert.NotNil(t, cfg.DNE.Schedulers)
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := NewLoader("testdata/valid.yaml", "test").Load()
	require.NoError(t, err)

	assert.Equal(t, ":9010", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.RateLimit.RPS)
	assert.Equal(t, 50, cfg.BuildFetchLimit)

	want := schema.NewConfig(
		schema.WithProjects(schema.NewProject("p1", "Proj 1",
			schema.NewBranch("main", "Main", schema.NewView("v1", "g1", "View 1")),
			schema.NewBranch("release", "Release"),
		)),
		schema.WithSchedulers(
			schema.NewScheduler("p1-main-nightly",
				schema.WithBuilderNames("linux", "windows"),
				schema.WithChangeFilter(schema.NewChangeFilter("cf", "p1", "main", schema.WithSkipTags("[skip ci]"))),
				schema.WithOnlyIfChanged(true),
				schema.WithCron("0 2 * * *"),
				schema.WithForceCron("0 3 * * 0"),
			),
			schema.NewScheduler("p1-main-full"),
		),
	)
	if diff := cmp.Diff(want, cfg.DNE); diff != "" {
		t.Fatalf("DNE tree mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvListen, ":7000")
	t.Setenv(EnvBuildFetchLimit, "7")
	t.Setenv(EnvRateLimitEnabled, "false")

	loader := NewLoader("testdata/valid.yaml", "test")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, 7, cfg.BuildFetchLimit)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{EnvBuildFetchLimit, EnvListen, EnvRateLimitEnabled}, loader.Overrides())
}

func TestLoad_InvalidEnvIsIgnored(t *testing.T) {
	t.Setenv(EnvRateLimitRPS, "lots")
	t.Setenv(EnvTracingSamplingRate, "0.5")
	t.Setenv(EnvRateLimitExempt, " 10.0.0.0/8, ,127.0.0.1 ")
	t.Setenv(EnvLogLevel, "   ")

	loader := NewLoader("", "test")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultRateLimitRPS, cfg.RateLimit.RPS)
	assert.Equal(t, 0.5, cfg.Tracing.SamplingRate)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.RateLimit.Exempt)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{EnvRateLimitExempt, EnvTracingSamplingRate}, loader.Overrides())
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "1": true, "YES": true, "false": false, "0": false, "no": false} {
		got, err := parseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseBool("maybe")
	assert.Error(t, err)
}

func TestLoad_UnknownFieldIsRejected(t *testing.T) {
	_, err := NewLoader("testdata/unknown_field.yaml", "test").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_UnknownNestedFieldIsRejected(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
dne:
  projects:
    - identifier: p1
      display_name: P
      branchs: []
`)
	_, err := NewLoader(path, "test").Load()
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_DuplicatesAndCron(t *testing.T) {
	_, err := NewLoader("testdata/duplicate_ids.yaml", "test").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		fields = append(fields, issue.Field)
	}
	assert.Contains(t, fields, "dne.projects[1].identifier")
	assert.Contains(t, fields, "dne.schedulers[0].cron")
}

func TestLoad_RejectsNonYAMLExtension(t *testing.T) {
	path := writeFile(t, "cfg.json", `{}`)
	_, err := NewLoader(path, "test").Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "logLevel: info\n---\nlogLevel: debug\n")
	_, err := NewLoader(path, "test").Load()
	assert.ErrorContains(t, err, "multiple documents")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "")
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestLoad_ExplicitNullsStayAbsent(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
dne:
  schedulers:
    - name: s
      change_filter: null
      only_if_changed: false
      cron: null
`)
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	require.Len(t, cfg.DNE.Schedulers, 1)

	s := cfg.DNE.Schedulers[0]
	assert.Nil(t, s.ChangeFilter)
	assert.Nil(t, s.Cron)
	require.NotNil(t, s.OnlyIfChanged)
	assert.False(t, *s.OnlyIfChanged)
	assert.NotNil(t, s.BuilderNames)
	assert.NotNil(t, cfg.DNE.Projects)
}

func TestCheckSchemaVersion(t *testing.T) {
	tests := []struct {
		declared string
		wantErr  bool
	}{
		{"", false},
		{"1.0.0", false},
		{"1", false},
		{"2.0.0", true},
		{"0.9.0", true},
		{"1.9.0", true},
		{"latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			err := CheckSchemaVersion(tt.declared)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrIncompatibleSchema), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFileConfig_NoDefaults(t *testing.T) {
	fc, err := LoadFileConfig("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", fc.SchemaVersion)
	assert.Nil(t, fc.Tracing.Enabled)
	require.NotNil(t, fc.Plugin.BuildFetchLimit)
	assert.Equal(t, 50, *fc.Plugin.BuildFetchLimit)
}
