// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

// Version is the semantic version of the wire shape. Bump the major on any
// field rename, removal or type change.
const Version = "1.0.0"

// View is a single grid layout of a branch.
type View struct {
	Identifier   string `json:"identifier" yaml:"identifier"`
	DisplayGroup string `json:"display_group" yaml:"display_group"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
}

// Branch groups the views available for one branch of a project.
// Views are kept in display order.
type Branch struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Views       []View `json:"views" yaml:"views"`
}

// Project groups branches.
type Project struct {
	Identifier  string   `json:"identifier" yaml:"identifier"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Branches    []Branch `json:"branches" yaml:"branches"`
}

// ChangeFilter selects the source changes that trigger a scheduler.
// Project and Branch are plain names; they are not checked against the
// configured projects.
type ChangeFilter struct {
	Name                 string   `json:"name" yaml:"name"`
	Project              string   `json:"project" yaml:"project"`
	Branch               string   `json:"branch" yaml:"branch"`
	FilePatternBlacklist []string `json:"file_pattern_blacklist" yaml:"file_pattern_blacklist"`
	FilePatternWhitelist []string `json:"file_pattern_whitelist" yaml:"file_pattern_whitelist"`
	SkipTags             []string `json:"skip_tags" yaml:"skip_tags"`
	UserBlacklist        []string `json:"user_blacklist" yaml:"user_blacklist"`
	UserWhitelist        []string `json:"user_whitelist" yaml:"user_whitelist"`
}

// Scheduler describes a build trigger. A nil ChangeFilter means the
// scheduler is not change driven.
type Scheduler struct {
	Name         string        `json:"name" yaml:"name"`
	BuilderNames []string      `json:"builder_names" yaml:"builder_names"`
	ChangeFilter *ChangeFilter `json:"change_filter" yaml:"change_filter"`

	// Nightly schedulers only.
	OnlyIfChanged *bool   `json:"only_if_changed" yaml:"only_if_changed"`
	Cron          *string `json:"cron" yaml:"cron"`
	ForceCron     *string `json:"force_cron" yaml:"force_cron"`
}

// Config is the root of the tree published under the plugin's name.
type Config struct {
	Projects   []Project   `json:"projects" yaml:"projects"`
	Schedulers []Scheduler `json:"schedulers" yaml:"schedulers"`
}
