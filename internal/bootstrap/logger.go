package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"github.com/darshanhv296/Flight-Management-System/config"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from the log section of the config.
func NewLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	switch strings.ToLower(cfg.Format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want json or text", cfg.Format)
	}
	return log, nil
}
