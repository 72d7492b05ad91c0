// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

// Constructors never fail and never share backing arrays with their
// arguments: every record gets its own containers.

// NewView returns a View.
func NewView(identifier, displayGroup, displayName string) View {
	return View{
		Identifier:   identifier,
		DisplayGroup: displayGroup,
		DisplayName:  displayName,
	}
}

// NewBranch returns a Branch holding copies of views in the given order.
func NewBranch(identifier, displayName string, views ...View) Branch {
	return Branch{
		Identifier:  identifier,
		DisplayName: displayName,
		Views:       cloneViews(views),
	}
}

// NewProject returns a Project holding copies of branches in the given order.
func NewProject(identifier, displayName string, branches ...Branch) Project {
	return Project{
		Identifier:  identifier,
		DisplayName: displayName,
		Branches:    cloneBranches(branches),
	}
}

// ChangeFilterOption sets an optional ChangeFilter field.
type ChangeFilterOption func(*ChangeFilter)

// WithFilePatternBlacklist sets the file patterns that never trigger.
func WithFilePatternBlacklist(patterns ...string) ChangeFilterOption {
	return func(cf *ChangeFilter) { cf.FilePatternBlacklist = cloneStrings(patterns) }
}

// WithFilePatternWhitelist sets the file patterns that trigger.
func WithFilePatternWhitelist(patterns ...string) ChangeFilterOption {
	return func(cf *ChangeFilter) { cf.FilePatternWhitelist = cloneStrings(patterns) }
}

// WithSkipTags sets the commit tags that suppress a trigger.
func WithSkipTags(tags ...string) ChangeFilterOption {
	return func(cf *ChangeFilter) { cf.SkipTags = cloneStrings(tags) }
}

// WithUserBlacklist sets the author patterns that never trigger.
func WithUserBlacklist(patterns ...string) ChangeFilterOption {
	return func(cf *ChangeFilter) { cf.UserBlacklist = cloneStrings(patterns) }
}

// WithUserWhitelist sets the author patterns that trigger.
func WithUserWhitelist(patterns ...string) ChangeFilterOption {
	return func(cf *ChangeFilter) { cf.UserWhitelist = cloneStrings(patterns) }
}

// NewChangeFilter returns a ChangeFilter. Pattern lists default to empty.
func NewChangeFilter(name, project, branch string, opts ...ChangeFilterOption) ChangeFilter {
	cf := ChangeFilter{
		Name:    name,
		Project: project,
		Branch:  branch,
	}
	for _, opt := range opts {
		opt(&cf)
	}
	cf.Normalize()
	return cf
}

// SchedulerOption sets an optional Scheduler field.
type SchedulerOption func(*Scheduler)

// WithBuilderNames sets the builders the scheduler may trigger.
func WithBuilderNames(names ...string) SchedulerOption {
	return func(s *Scheduler) { s.BuilderNames = cloneStrings(names) }
}

// WithChangeFilter attaches a copy of cf to the scheduler.
func WithChangeFilter(cf ChangeFilter) SchedulerOption {
	return func(s *Scheduler) {
		owned := cf.Clone()
		s.ChangeFilter = &owned
	}
}

// WithOnlyIfChanged sets the nightly only-if-changed flag.
func WithOnlyIfChanged(v bool) SchedulerOption {
	return func(s *Scheduler) { s.OnlyIfChanged = &v }
}

// WithCron sets the periodic trigger expression.
func WithCron(expr string) SchedulerOption {
	return func(s *Scheduler) { s.Cron = &expr }
}

// WithForceCron sets the forced periodic trigger expression.
func WithForceCron(expr string) SchedulerOption {
	return func(s *Scheduler) { s.ForceCron = &expr }
}

// NewScheduler returns a Scheduler. Unset optional fields stay absent.
func NewScheduler(name string, opts ...SchedulerOption) Scheduler {
	s := Scheduler{Name: name}
	for _, opt := range opts {
		opt(&s)
	}
	s.Normalize()
	return s
}

// ConfigOption sets a Config container.
type ConfigOption func(*Config)

// WithProjects sets the configured projects in display order.
func WithProjects(projects ...Project) ConfigOption {
	return func(c *Config) { c.Projects = cloneProjects(projects) }
}

// WithSchedulers sets the configured schedulers.
func WithSchedulers(schedulers ...Scheduler) ConfigOption {
	return func(c *Config) { c.Schedulers = cloneSchedulers(schedulers) }
}

// NewConfig returns a Config. Both containers default to empty.
func NewConfig(opts ...ConfigOption) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	c.Normalize()
	return c
}
