package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"savestate-server/internal/checkpoint"
	"savestate-server/internal/config"
	"savestate-server/internal/domain"
	"savestate-server/internal/infrastructure/storage"
	"savestate-server/internal/infrastructure/storage/sqlite"
	"savestate-server/internal/level"
	"savestate-server/internal/network"
	"savestate-server/internal/persist"
	"savestate-server/internal/server"
	"savestate-server/internal/version"
	"savestate-server/pkg/api"
	"savestate-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var levelPath, slotName string
	flag.StringVar(&levelPath, "level", "", "Path to level JSON (overrides LEVEL_PATH)")
	flag.StringVar(&slotName, "slot", "", "Save slot to import and apply on startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Config error: ", err)
	}
	if levelPath != "" {
		cfg.LevelPath = levelPath
	}
	logger.Configure(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	logger.Log.Info("Starting savestate server...")
	logger.Log.Info(version.String())

	// 2. Хранилище слотов
	slots, err := openSlots(cfg)
	if err != nil {
		logger.Log.Fatal("Save slots: ", err)
	}
	defer slots.Close()

	codec, err := persist.CodecByName(cfg.PayloadCodec)
	if err != nil {
		logger.Log.Fatal(err)
	}

	// 3. Сессия уровня и хаб
	hub := network.NewBroadcaster()
	session := level.NewSession(level.Options{
		Codec:        codec,
		Slots:        slots,
		AutosaveSlot: cfg.AutosaveSlot,
		OnEvent: func(e checkpoint.Event) {
			hub.Broadcast(level.EventResponse(e))
		},
	})

	def := level.Demo()
	if cfg.LevelPath != "" {
		if def, err = level.LoadDefinition(cfg.LevelPath); err != nil {
			logger.Log.Fatal(err)
		}
	}
	if err := session.LoadLevel(def); err != nil {
		logger.Log.Fatal(err)
	}

	logger.Log.WithFields(logrus.Fields{
		"level":   def.Name,
		"backend": cfg.SaveBackend,
		"codec":   codec.Name(),
	}).Info("Session ready")

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionDone := make(chan struct{})
	go func() {
		session.Run(ctx)
		close(sessionDone)
	}()

	// 4. Стартовый слот: IMPORT + LOAD через цикл сессии
	if slotName != "" {
		res, err := session.Submit(ctx, importCommand(slotName))
		if err == nil {
			err = res.Err
		}
		if err != nil {
			logger.Log.WithError(err).WithField("slot", slotName).Warn("Startup slot not applied")
		} else {
			logger.Log.WithField("slot", slotName).Info(res.Message)
		}
	}

	// 5. Запуск сервера
	srv := server.New(session, hub, slots, cfg.Port)
	if err := srv.Run(ctx); err != nil {
		logger.Log.Error("Server error: ", err)
		stop()
	}

	<-sessionDone
	logger.Log.Info("Shutting down...")

	// Цикл остановлен, сессия снова наша: финальный снимок в автослот
	session.UnloadLevel()
	if cfg.AutosaveSlot != "" {
		if blob, err := session.Store().ExportSnapshot(); err == nil {
			if err := slots.Put(context.Background(), cfg.AutosaveSlot, blob); err != nil {
				logger.Log.WithError(err).Warn("Final autosave failed")
			}
		}
	}

	logger.Log.Info("Done.")
}

func openSlots(cfg config.Config) (storage.SlotStorage, error) {
	switch cfg.SaveBackend {
	case config.BackendFile:
		return storage.NewFileSlots(cfg.SaveDir)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SaveDB), 0o755); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.SaveDB)
	}
}

func importCommand(slot string) domain.InternalCommand {
	payload, _ := json.Marshal(api.SlotPayload{Slot: slot, Apply: true})
	return domain.InternalCommand{Type: domain.CommandImport, Source: "startup", Payload: payload}
}
