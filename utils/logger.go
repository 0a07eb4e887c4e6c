package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger.
var Logger = logrus.New()

// ConfigureLogger sets level and format. format "text" selects the human readable formatter.
func ConfigureLogger(level, format string) {
	Logger.SetOutput(os.Stdout)
	if strings.EqualFold(format, "text") {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
