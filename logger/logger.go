package logger

import (
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	log    *logrus.Logger
	active bool
}

var FileRecoveryLogger Logger

func InitializeLogger(active bool, logfilename string) {
	if active {

		file, err := os.OpenFile(logfilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			log.Fatal(err)
		}

		logrusLogger := logrus.New()
		logrusLogger.SetOutput(file)
		logrusLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		FileRecoveryLogger = Logger{log: logrusLogger, active: active}
	} else {
		FileRecoveryLogger = Logger{active: active}
	}

}

func (logger Logger) Info(msg string) {
	if logger.active {
		logger.log.Info(msg)
	}
}

func (logger Logger) Error(msg any) {
	if logger.active {
		logger.log.Error(msg)
	}
}

func (logger Logger) Warning(msg string) {
	if logger.active {
		logger.log.Warning(msg)
	}
}
