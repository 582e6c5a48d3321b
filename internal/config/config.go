package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Бэкенды хранения слотов сохранений
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config хранит параметры запуска сервера.
type Config struct {
	Port string `env:"CD_PORT" envDefault:"8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// SaveBackend - где живут слоты: sqlite или file
	SaveBackend string `env:"SAVE_BACKEND" envDefault:"sqlite"`
	SaveDir     string `env:"SAVE_DIR" envDefault:"./saves"`
	SaveDB      string `env:"SAVE_DB" envDefault:"./saves/slots.db"`

	// PayloadCodec - кодек полезной нагрузки компонентов: json или cbor
	PayloadCodec string `env:"PAYLOAD_CODEC" envDefault:"json"`

	// LevelPath - JSON с описанием уровня. Пусто - встроенный демо-уровень.
	LevelPath string `env:"LEVEL_PATH"`

	// AutosaveSlot - слот, в который пишется снапшот при достижении чекпоинта.
	// Пусто - автосохранение выключено.
	AutosaveSlot string `env:"AUTOSAVE_SLOT" envDefault:"autosave"`
}

// Load читает конфигурацию из переменных окружения и валидирует её.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения перечислений.
func (c *Config) Validate() error {
	c.SaveBackend = strings.ToLower(strings.TrimSpace(c.SaveBackend))
	c.PayloadCodec = strings.ToLower(strings.TrimSpace(c.PayloadCodec))

	switch c.SaveBackend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown SAVE_BACKEND %q", c.SaveBackend)
	}

	switch c.PayloadCodec {
	case "json", "cbor":
	default:
		return fmt.Errorf("unknown PAYLOAD_CODEC %q", c.PayloadCodec)
	}
	return nil
}
