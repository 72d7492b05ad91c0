// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Unset all DNEGRID vars to ensure a clean test environment
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "DNEGRID_") {
			kv := strings.SplitN(e, "=", 2)
			if err := os.Unsetenv(kv[0]); err != nil {
				panic("failed to unset env: " + err.Error())
			}
		}
	}

	os.Exit(m.Run())
}
