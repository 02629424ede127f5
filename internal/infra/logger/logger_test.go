package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigureSelectsFormatterByEnvironment(t *testing.T) {
	l := logrus.New()
	Configure(l, &bytes.Buffer{}, "debug", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	Configure(l, &bytes.Buffer{}, "warn", "development")
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestConfigureFallsBackToInfo(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	Configure(l, &buf, "loud", "staging")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}
