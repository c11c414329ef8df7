package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process wide logger. It writes to stderr until InitLogger runs.
var Log = logrus.New()

type LoggerConfig struct {
	LogLevel     string
	LogFile      string
	LogFileSize  int
	LogFileCount int
	LogCompress  bool
}

// ParseLevel maps the config names (Debug, Info, Warning, Error) to logrus levels.
// Unknown names fall back to info.
func ParseLevel(name string) logrus.Level {
	switch {
	case strings.EqualFold(name, "Debug"):
		return logrus.DebugLevel
	case strings.EqualFold(name, "Warning"), strings.EqualFold(name, "Warn"):
		return logrus.WarnLevel
	case strings.EqualFold(name, "Error"):
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

// InitLogger sends the log to stdout and a rotated log file.
func InitLogger(config LoggerConfig) {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(ParseLevel(config.LogLevel))

	if config.LogFile == "" {
		config.LogFile = "case_tables.log"
	}
	if config.LogFileSize <= 0 {
		config.LogFileSize = 5
	}
	mw := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   config.LogFile,
		MaxSize:    config.LogFileSize, // megabytes
		MaxBackups: config.LogFileCount,
		MaxAge:     28, //days
		Compress:   config.LogCompress,
	})
	Log.SetOutput(mw)
}
