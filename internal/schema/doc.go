// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schema defines the DNE grid view configuration tree served to the
// browser client: projects, branches, views, change filters and schedulers.
//
// The JSON field names are a wire contract. The client-side type definition is
// generated from these types by package contract; a field rename here without
// regenerating it breaks the dashboard.
//
// Records are constructed once and treated as read-only afterwards. Container
// fields are always non-nil after construction or decoding, and optional
// fields are pointers so that "absent" stays distinct from "" and false.
package schema
