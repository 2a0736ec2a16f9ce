package logging

import (
	"io"
	"strings"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. quiet raises the level to warn.
func New(cfg config.Log, out io.Writer, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if quiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
