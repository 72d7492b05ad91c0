// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package selection resolves which project, branch and view of a DNE tree a
// request refers to. An unknown or missing identifier falls back to the
// first entry of its container, the same rule the grid client applies to
// its URL parameters.
package selection

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/ManuGH/dnegrid/internal/schema"
)

// ErrNoProject is returned when the tree has no project to fall back to.
var ErrNoProject = errors.New("no project configured")

// Query carries the raw request parameters. Length is kept as text so that
// "missing" and "invalid" can both fall back to the default.
type Query struct {
	Project string
	Branch  string
	View    string
	Length  *string
}

// Selection is the resolved form of a Query. Branch and View are empty when
// the resolved container has no entries.
type Selection struct {
	Project string `json:"project"`
	Branch  string `json:"branch"`
	View    string `json:"view"`
	Length  int    `json:"length"`
	Tag     string `json:"tag"`
	ViewTag string `json:"view_tag"`
}

// ProjectOrDefault returns the project with identifier id, else the first
// project. ok is false only when cfg has no projects.
func ProjectOrDefault(cfg schema.Config, id string) (schema.Project, bool) {
	for _, p := range cfg.Projects {
		if p.Identifier == id {
			return p, true
		}
	}
	if len(cfg.Projects) == 0 {
		return schema.Project{}, false
	}
	return cfg.Projects[0], true
}

// BranchOrDefault applies the same rule to the branches of p.
func BranchOrDefault(p schema.Project, id string) (schema.Branch, bool) {
	for _, b := range p.Branches {
		if b.Identifier == id {
			return b, true
		}
	}
	if len(p.Branches) == 0 {
		return schema.Branch{}, false
	}
	return p.Branches[0], true
}

// ViewOrDefault applies the same rule to the views of b.
func ViewOrDefault(b schema.Branch, id string) (schema.View, bool) {
	for _, v := range b.Views {
		if v.Identifier == id {
			return v, true
		}
	}
	if len(b.Views) == 0 {
		return schema.View{}, false
	}
	return b.Views[0], true
}

// Resolve maps q onto cfg.
func Resolve(cfg schema.Config, q Query, defaultLength int) (Selection, error) {
	project, ok := ProjectOrDefault(cfg, q.Project)
	if !ok {
		return Selection{}, ErrNoProject
	}

	sel := Selection{
		Project: project.Identifier,
		Length:  Length(q.Length, defaultLength),
	}
	if branch, ok := BranchOrDefault(project, q.Branch); ok {
		sel.Branch = branch.Identifier
		if view, ok := ViewOrDefault(branch, q.View); ok {
			sel.View = view.Identifier
		}
	}
	sel.Tag = Tag(sel.Project, sel.Branch)
	sel.ViewTag = ViewTag(sel.Project, sel.Branch, sel.View)
	return sel, nil
}

// Tag is the lower-cased "<project>-<branch>" key schedulers are named after.
func Tag(project, branch string) string {
	return strings.ToLower(project + "-" + branch)
}

// ViewTag is the lower-cased "<project>-<branch>-<view>" key.
func ViewTag(project, branch, view string) string {
	return strings.ToLower(project + "-" + branch + "-" + view)
}

// SchedulersFor returns the schedulers whose name starts with "<tag>-",
// in configuration order. The returned values share no memory with cfg.
func SchedulersFor(cfg schema.Config, tag string) []schema.Scheduler {
	prefix := tag + "-"
	out := make([]schema.Scheduler, 0)
	for _, s := range cfg.Schedulers {
		if strings.HasPrefix(s.Name, prefix) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Length parses raw the way the grid client does: a leading integer,
// decimal or 0x-prefixed hex, is accepted and clamped to at least 1,
// anything else yields def.
func Length(raw *string, def int) int {
	if raw == nil {
		return def
	}
	n, ok := leadingInt(*raw)
	if !ok {
		return def
	}
	return max(n, 1)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	neg := end > 0 && s[0] == '-'
	base, isDigit := 10, isDecimal
	if len(s) > end+1 && s[end] == '0' && (s[end+1] == 'x' || s[end+1] == 'X') {
		end += 2
		base, isDigit = 16, isHex
	}
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[digits:end], base, 0)
	if err != nil {
		// Out of range: saturate like the client's float parse would.
		if neg {
			return 1, true
		}
		return int(^uint(0) >> 1), true
	}
	if neg {
		n = -n
	}
	return int(n), true
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
