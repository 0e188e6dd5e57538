package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Both loggers are usable before InitLogger; InitLogger sets their output and format.
var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

// SetLevel parses a logrus level name and applies it to InfoLogger.
// Unknown names leave the level untouched.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		ErrorLogger.Printf("unknown log level %q: %v", name, err)
		return
	}
	InfoLogger.SetLevel(lvl)
}
