// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "dnegrid-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{}) })

	logger := WithComponent("config")
	logger.Info().Str(FieldEvent, "config.loaded").Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dnegrid-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "config", entry[FieldComponent])
	assert.Equal(t, "config.loaded", entry[FieldEvent])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger := WithComponent("x")
	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestConfigure_Defaults(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "nonsense", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	L().Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, defaultService, entry["service"])
	assert.Equal(t, "hello", entry["message"])
}
