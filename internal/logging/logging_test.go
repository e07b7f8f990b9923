package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	Configure(logger, logrus.InfoLevel, "json", &buf)

	logger.WithField("component", "store").Info("index built")
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "index built", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "store", line["component"])
	assert.Contains(t, line, "timestamp")
}

func TestConfigure_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	Configure(logger, logrus.DebugLevel, "TEXT", &buf)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("loud", "json", nil))
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	entry := New("x")
	assert.Same(t, entry, OrDiscard(entry))
	assert.Equal(t, "x", entry.Data["component"])
}
