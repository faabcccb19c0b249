package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "debug", Format: "json", Output: &buf}))
	t.Cleanup(func() { _ = Setup(Options{}) })

	Component("simulation").WithField("iterations", 100).Debug("run started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "simulation", entry["component"])
	assert.Equal(t, "run started", entry["msg"])
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetup_Invalid(t *testing.T) {
	assert.Error(t, Setup(Options{Level: "loud"}))
	assert.Error(t, Setup(Options{Format: "xml"}))
}
