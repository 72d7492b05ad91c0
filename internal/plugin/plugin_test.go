// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package plugin

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticApp(name string, cfg any) Application {
	return Application{Name: name, Config: func() any { return cfg }}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(staticApp("b", 1)))
	require.NoError(t, r.Register(staticApp("a", 2)))

	app, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "a", app.Name)

	names := []string{}
	for _, app := range r.Applications() {
		names = append(names, app.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(staticApp("a", nil)))

	assert.True(t, errors.Is(r.Register(staticApp("a", nil)), ErrDuplicatePlugin))
	assert.True(t, errors.Is(r.Register(staticApp(" ", nil)), ErrInvalidPlugin))
	assert.True(t, errors.Is(r.Register(Application{Name: "noconfig"}), ErrInvalidPlugin))

	_, err := r.Lookup("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFrontendConfig_NestsUnderPlugins(t *testing.T) {
	r := NewRegistry()
	tree := schema.NewConfig(schema.WithProjects(schema.NewProject("p1", "P1")))
	require.NoError(t, r.Register(DNE(func() schema.Config { return tree }, func() int { return 20 })))

	raw, err := json.Marshal(r.FrontendConfig())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"plugins":{"react_dne_grid_view":{"projects":[{"identifier":"p1","display_name":"P1","branches":[]}],"schedulers":[]}}}`,
		string(raw))
}

func TestFrontendConfig_ReadsProviderEachTime(t *testing.T) {
	r := NewRegistry()
	n := 0
	require.NoError(t, r.Register(Application{Name: "counter", Config: func() any { n++; return n }}))

	assert.Equal(t, 1, r.FrontendConfig().Plugins["counter"])
	assert.Equal(t, 2, r.FrontendConfig().Plugins["counter"])
}

func TestDNE_Descriptor(t *testing.T) {
	app := DNE(func() schema.Config { return schema.NewConfig() }, func() int { return 35 })
	d := app.Descriptor()

	assert.Equal(t, DNEName, d.Name)
	assert.Equal(t, DNEDescription, d.Description)
	require.Len(t, d.Menus, 2)
	assert.Equal(t, "dne_grid", d.Menus[0].Name)
	assert.Equal(t, "/failure_dash", d.Menus[1].Route)
	assert.Nil(t, d.Menus[0].ParentName)
	assert.Equal(t, []Route{{Route: "/dne_grid", Group: "dne_grid"}, {Route: "/failure_dash", Group: "dne_fdash"}}, d.Routes)

	require.Len(t, d.Settings, 1)
	require.Len(t, d.Settings[0].Items, 1)
	item := d.Settings[0].Items[0]
	assert.Equal(t, "integer", item.Type)
	assert.Equal(t, BuildFetchLimitSetting, item.Name)
	assert.Equal(t, 35, item.DefaultValue)
}

func TestDescriptor_DoesNotAliasApplication(t *testing.T) {
	app := DNE(func() schema.Config { return schema.NewConfig() }, func() int { return 20 })
	d := app.Descriptor()
	d.Menus[0].Caption = "changed"
	d.Settings[0].Items[0].Caption = "changed"

	assert.Equal(t, "DNE Grid View", app.Menus[0].Caption)
	assert.Equal(t, "Maximum number of builds to retrieve per builder", app.Descriptor().Settings[0].Items[0].Caption)
}

func TestDNE_SettingsFollowFetchLimitReload(t *testing.T) {
	limit := 20
	r := NewRegistry()
	require.NoError(t, r.Register(DNE(func() schema.Config { return schema.NewConfig() }, func() int { return limit })))

	app, err := r.Lookup(DNEName)
	require.NoError(t, err)
	assert.Equal(t, 20, app.Descriptor().Settings[0].Items[0].DefaultValue)

	limit = 50
	app, err = r.Lookup(DNEName)
	require.NoError(t, err)
	assert.Equal(t, 50, app.Descriptor().Settings[0].Items[0].DefaultValue)
}

func TestDescriptor_NoSettings(t *testing.T) {
	d := Application{Name: "bare", Config: func() any { return nil }}.Descriptor()
	assert.NotNil(t, d.Settings)
	assert.Empty(t, d.Settings)
}
