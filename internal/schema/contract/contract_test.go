// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package contract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScript_MirrorsWireShape(t *testing.T) {
	ts, err := TypeScript()
	require.NoError(t, err)

	wantBlocks := []string{
		"export type DNEView = {\n  identifier: string,\n  display_group: string,\n  display_name: string,\n};",
		"export type DNEBranch = {\n  identifier: string,\n  display_name: string,\n  views: DNEView[],\n};",
		"export type DNEProject = {\n  identifier: string,\n  display_name: string,\n  branches: DNEBranch[],\n};",
		"  change_filter: ChangeFilter | null,\n",
		"  only_if_changed: boolean | null,\n",
		"  cron: string | null,\n",
		"  force_cron: string | null,\n",
		"  builder_names: string[],\n",
		"export type DNEConfig = {\n  projects: DNEProject[],\n  schedulers: Scheduler[],\n};",
	}
	for _, want := range wantBlocks {
		assert.Contains(t, ts, want)
	}
	assert.Contains(t, ts, "Schema version: "+schema.Version)

	for _, field := range []string{
		"file_pattern_blacklist", "file_pattern_whitelist", "skip_tags", "user_blacklist", "user_whitelist",
	} {
		assert.Contains(t, ts, "  "+field+": string[],\n")
	}
}

func TestTypeScript_RecordOrder(t *testing.T) {
	ts, err := TypeScript()
	require.NoError(t, err)

	last := -1
	for _, rec := range Records() {
		idx := strings.Index(ts, "export type "+rec.Name+" ")
		require.GreaterOrEqual(t, idx, 0, rec.Name)
		assert.Greater(t, idx, last, "%s out of order", rec.Name)
		last = idx
	}
}

func TestOpenAPI_DocumentIsValid(t *testing.T) {
	doc, err := OpenAPI()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, rec := range Records() {
		assert.Contains(t, doc.Components.Schemas, rec.Name)
	}
	for _, path := range []string{
		"/config.json",
		"/api/v1/plugins",
		"/api/v1/plugins/{name}",
		"/api/v1/dne/config",
		"/api/v1/dne/config/reload",
		"/api/v1/dne/config/revisions",
		"/api/v1/dne/config/revisions/{id}",
		"/api/v1/dne/selection",
		"/api/v1/dne/schedulers",
	} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}
	assert.NotNil(t, doc.Paths.Value("/api/v1/dne/config/reload").Post)
}

func TestOpenAPI_RoundTripsThroughLoader(t *testing.T) {
	raw, err := OpenAPIJSON()
	require.NoError(t, err)

	loaded, err := openapi3.NewLoader().LoadFromData(raw)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate(context.Background()))

	cfg := loaded.Components.Schemas["DNEConfig"].Value
	require.NotNil(t, cfg)
	assert.ElementsMatch(t, []string{"projects", "schedulers"}, cfg.Required)
}

func TestOpenAPIYAML(t *testing.T) {
	raw, err := OpenAPIYAML()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "openapi: 3.0.3")
	assert.Contains(t, string(raw), "DNEConfig:")
}

func TestValidateDocument_AcceptsSerializedConfig(t *testing.T) {
	cfg := schema.NewConfig(
		schema.WithProjects(schema.NewProject("p1", "Proj 1",
			schema.NewBranch("main", "Main", schema.NewView("v1", "g1", "View 1")),
		)),
		schema.WithSchedulers(
			schema.NewScheduler("nightly1"),
			schema.NewScheduler("p1-main-full",
				schema.WithChangeFilter(schema.NewChangeFilter("cf", "p1", "main")),
				schema.WithOnlyIfChanged(true),
				schema.WithCron("0 2 * * *"),
			),
		),
	)
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NoError(t, ValidateDocument("DNEConfig", raw))
}

func TestValidateDocument_RejectsDrift(t *testing.T) {
	cases := map[string]string{
		"renamed field":  `{"projects":[],"scheduler":[]}`,
		"null container": `{"projects":null,"schedulers":[]}`,
		"wrong type":     `{"projects":[{"identifier":1,"display_name":"x","branches":[]}],"schedulers":[]}`,
		"missing field":  `{"projects":[{"identifier":"p","branches":[]}],"schedulers":[]}`,
		"bool as string": `{"projects":[],"schedulers":[{"name":"s","builder_names":[],"change_filter":null,"only_if_changed":"yes","cron":null,"force_cron":null}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateDocument("DNEConfig", []byte(doc)))
		})
	}
}

func TestValidateDocument_UnknownRecord(t *testing.T) {
	err := ValidateDocument("Nope", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownRecord))
}
