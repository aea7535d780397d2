// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")
	log.Debug("hidden")
	log.Info("reading", "ppm", 612)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "reading", rec["msg"])
	assert.Equal(t, "airmon", rec["app"])
	assert.Equal(t, 612.0, rec["ppm"])
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn, "text")
	log.Info("hidden")
	log.Warn("low battery", "voltage", "3.2V")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "low battery")
	assert.Contains(t, out, "voltage=3.2V")
	assert.NotContains(t, out, "\033[")
}
