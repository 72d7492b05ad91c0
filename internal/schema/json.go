// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

import "encoding/json"

// The client indexes containers without null checks, so nil slices must go
// out as [] and missing containers must come back as empty slices. The local
// wire types carry no methods, which keeps the encoder from recursing.

// MarshalJSON implements json.Marshaler.
func (c Config) MarshalJSON() ([]byte, error) {
	type wire Config
	w := wire(c)
	if w.Projects == nil {
		w.Projects = []Project{}
	}
	if w.Schedulers == nil {
		w.Schedulers = []Scheduler{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	type wire Config
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Config(w)
	c.Normalize()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Project) MarshalJSON() ([]byte, error) {
	type wire Project
	w := wire(p)
	if w.Branches == nil {
		w.Branches = []Branch{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Project) UnmarshalJSON(data []byte) error {
	type wire Project
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Project(w)
	p.Normalize()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b Branch) MarshalJSON() ([]byte, error) {
	type wire Branch
	w := wire(b)
	if w.Views == nil {
		w.Views = []View{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Branch) UnmarshalJSON(data []byte) error {
	type wire Branch
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Branch(w)
	b.Normalize()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (cf ChangeFilter) MarshalJSON() ([]byte, error) {
	type wire ChangeFilter
	w := wire(cf)
	n := ChangeFilter(w)
	n.Normalize()
	return json.Marshal(wire(n))
}

// UnmarshalJSON implements json.Unmarshaler.
func (cf *ChangeFilter) UnmarshalJSON(data []byte) error {
	type wire ChangeFilter
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*cf = ChangeFilter(w)
	cf.Normalize()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scheduler) MarshalJSON() ([]byte, error) {
	type wire Scheduler
	w := wire(s)
	if w.BuilderNames == nil {
		w.BuilderNames = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	type wire Scheduler
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Scheduler(w)
	s.Normalize()
	return nil
}
