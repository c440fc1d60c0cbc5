package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	enabled = true // flip to false to nuke logs
	log     = logrus.New()
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func EnableLogging(b bool) {
	enabled = b
}

// SetDebug lowers the threshold to debug level.
func SetDebug(b bool) {
	if b {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

func Debug(msg string, v ...interface{}) {
	if !enabled {
		return
	}
	log.Debugf(msg, v...)
}

func Info(msg string, v ...interface{}) {
	if !enabled {
		return
	}
	log.Infof(msg, v...)
}

func Warn(msg string, v ...interface{}) {
	if !enabled {
		return
	}
	log.Warnf(msg, v...)
}

func Error(msg string, v ...interface{}) {
	if !enabled {
		return
	}
	log.Errorf(msg, v...)
}

func Fatal(msg string, v ...interface{}) {
	log.Fatalf(msg, v...)
}
