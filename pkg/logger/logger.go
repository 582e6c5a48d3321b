package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
var Log = logrus.New()

// Options задает параметры логгера. Пустые поля берутся из окружения.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json | text
	Output io.Writer
}

// Init инициализирует глобальный логгер из переменных окружения LOG_LEVEL и LOG_FORMAT.
// Должна быть вызвана один раз при старте приложения (main.go или TestMain).
func Init() {
	Configure(Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// Configure применяет явные настройки (используется cmd/server после разбора конфига).
func Configure(opts Options) {
	Log = logrus.New()

	// 1. Уровень. По умолчанию - "info".
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер: "json" для продакшена, "text" для разработки.
	if strings.ToLower(opts.Format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// 3. Куда пишем.
	if opts.Output != nil {
		Log.SetOutput(opts.Output)
	} else {
		Log.SetOutput(os.Stdout)
	}
}

// Component возвращает логгер с проставленным полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
