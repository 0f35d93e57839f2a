package vkx

import (
	"sync"

	units "github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

var (
	logMu  sync.RWMutex
	logger = newDefaultLogger()
)

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Logger returns the logger used by the package.
func Logger() *logrus.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// SetLogger replaces the logger used by the package. A nil logger restores the default.
func SetLogger(l *logrus.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		l = newDefaultLogger()
	}
	logger = l
}

// SetLogLevel parses level ("debug", "info", ...) and applies it to the package logger.
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger().SetLevel(lvl)
	return nil
}

func sizeField(size vk.DeviceSize) string {
	return units.BytesSize(float64(size))
}
