// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package plugin

import "github.com/ManuGH/dnegrid/internal/schema"

// DNE grid application identity.
const (
	DNEName        = "react_dne_grid_view"
	DNEDescription = "Buildbot DNE Grid View plugin"

	// BuildFetchLimitSetting is the client setting name for the number of
	// builds retrieved per builder.
	BuildFetchLimitSetting = "buildFetchLimit"
)

// DNE builds the grid view application. tree and fetchLimit are read on
// every request; fetchLimit is the default of the buildFetchLimit setting.
func DNE(tree func() schema.Config, fetchLimit func() int) Application {
	return Application{
		Name:        DNEName,
		Description: DNEDescription,
		Config:      func() any { return tree() },
		Menus: []MenuGroup{
			{Name: "dne_grid", Caption: "DNE Grid View", Icon: "cubes", Order: 4, Route: "/dne_grid"},
			{Name: "dne_fdash", Caption: "DNE Failure Dashboard", Icon: "cubes", Order: 4, Route: "/failure_dash"},
		},
		Routes: []Route{
			{Route: "/dne_grid", Group: "dne_grid"},
			{Route: "/failure_dash", Group: "dne_fdash"},
		},
		Settings: func() []SettingGroup {
			return []SettingGroup{{
				Name:    "DNEGrid",
				Caption: "DNEGrid related settings",
				Items: []SettingItem{{
					Type:         "integer",
					Name:         BuildFetchLimitSetting,
					Caption:      "Maximum number of builds to retrieve per builder",
					DefaultValue: fetchLimit(),
				}},
			}}
		},
	}
}
