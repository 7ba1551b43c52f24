package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger is the shared logger instance for the service.
var Logger = logrus.New()

// Init configures the shared logger. Unknown levels fall back to info.
func Init(level string) {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}
