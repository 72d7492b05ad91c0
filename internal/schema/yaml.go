// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

// MarshalYAML implements yaml.Marshaler. The tree is cloned first so every
// container is emitted as a sequence, never as null.
func (c Config) MarshalYAML() (any, error) {
	type wire Config
	return wire(c.Clone()), nil
}

// UnmarshalYAML implements the callback form of yaml.Unmarshaler so the
// caller's decoder, and with it KnownFields strictness, decodes the tree.
// Missing containers come back empty.
func (c *Config) UnmarshalYAML(unmarshal func(any) error) error {
	type wire Config
	var w wire
	if err := unmarshal(&w); err != nil {
		return err
	}
	*c = Config(w)
	c.Normalize()
	return nil
}
