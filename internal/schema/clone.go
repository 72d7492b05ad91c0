// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

import "reflect"

// Clone returns an alias-free deep copy of the tree.
// Containers in the copy are never nil, even when they were nil in c.
func (c Config) Clone() Config {
	return Config{
		Projects:   cloneProjects(c.Projects),
		Schedulers: cloneSchedulers(c.Schedulers),
	}
}

// Clone returns an alias-free deep copy of p.
func (p Project) Clone() Project {
	out := p
	out.Branches = cloneBranches(p.Branches)
	return out
}

// Clone returns an alias-free deep copy of b.
func (b Branch) Clone() Branch {
	out := b
	out.Views = cloneViews(b.Views)
	return out
}

// Clone returns an alias-free deep copy of cf.
func (cf ChangeFilter) Clone() ChangeFilter {
	out := cf
	out.FilePatternBlacklist = cloneStrings(cf.FilePatternBlacklist)
	out.FilePatternWhitelist = cloneStrings(cf.FilePatternWhitelist)
	out.SkipTags = cloneStrings(cf.SkipTags)
	out.UserBlacklist = cloneStrings(cf.UserBlacklist)
	out.UserWhitelist = cloneStrings(cf.UserWhitelist)
	return out
}

// Clone returns an alias-free deep copy of s, including its optional fields.
func (s Scheduler) Clone() Scheduler {
	out := s
	out.BuilderNames = cloneStrings(s.BuilderNames)
	if s.ChangeFilter != nil {
		cf := s.ChangeFilter.Clone()
		out.ChangeFilter = &cf
	}
	if s.OnlyIfChanged != nil {
		v := *s.OnlyIfChanged
		out.OnlyIfChanged = &v
	}
	if s.Cron != nil {
		v := *s.Cron
		out.Cron = &v
	}
	if s.ForceCron != nil {
		v := *s.ForceCron
		out.ForceCron = &v
	}
	return out
}

// Equal reports whether both trees hold the same values in the same order.
// A nil container and an empty one compare equal.
func (c Config) Equal(other Config) bool {
	return reflect.DeepEqual(c.Clone(), other.Clone())
}

// Normalize replaces nil containers with empty ones throughout the tree.
func (c *Config) Normalize() {
	if c.Projects == nil {
		c.Projects = []Project{}
	}
	if c.Schedulers == nil {
		c.Schedulers = []Scheduler{}
	}
	for i := range c.Projects {
		c.Projects[i].Normalize()
	}
	for i := range c.Schedulers {
		c.Schedulers[i].Normalize()
	}
}

// Normalize replaces nil containers with empty ones.
func (p *Project) Normalize() {
	if p.Branches == nil {
		p.Branches = []Branch{}
	}
	for i := range p.Branches {
		p.Branches[i].Normalize()
	}
}

// Normalize replaces a nil view list with an empty one.
func (b *Branch) Normalize() {
	if b.Views == nil {
		b.Views = []View{}
	}
}

// Normalize replaces nil pattern lists with empty ones.
func (cf *ChangeFilter) Normalize() {
	if cf.FilePatternBlacklist == nil {
		cf.FilePatternBlacklist = []string{}
	}
	if cf.FilePatternWhitelist == nil {
		cf.FilePatternWhitelist = []string{}
	}
	if cf.SkipTags == nil {
		cf.SkipTags = []string{}
	}
	if cf.UserBlacklist == nil {
		cf.UserBlacklist = []string{}
	}
	if cf.UserWhitelist == nil {
		cf.UserWhitelist = []string{}
	}
}

// Normalize replaces nil containers with empty ones. Optional fields are
// left untouched.
func (s *Scheduler) Normalize() {
	if s.BuilderNames == nil {
		s.BuilderNames = []string{}
	}
	if s.ChangeFilter != nil {
		s.ChangeFilter.Normalize()
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneViews(in []View) []View {
	out := make([]View, len(in))
	copy(out, in)
	return out
}

func cloneBranches(in []Branch) []Branch {
	out := make([]Branch, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneProjects(in []Project) []Project {
	out := make([]Project, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneSchedulers(in []Scheduler) []Scheduler {
	out := make([]Scheduler, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
