// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and hot-reloads the dnegrid service
// configuration, including the DNE tree published to the browser client.
//
// Precedence: ENV > file > defaults. The file is strict YAML: unknown keys,
// multiple documents and trailing content are rejected.
package config
