package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("Warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("Info"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("nonsense"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.log")
	InitLogger(LoggerConfig{LogLevel: "Debug", LogFile: file, LogFileSize: 1, LogFileCount: 1})
	t.Cleanup(func() { Log.SetLevel(logrus.InfoLevel) })

	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	Log.Debugln("written to file")
	assert.FileExists(t, file)
	require.NotNil(t, Log.Out)
}
