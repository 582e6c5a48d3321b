// Command savectl управляет слотами сохранений сервера: список, просмотр,
// выгрузка в файл, загрузка из файла и удаление.
package main

import (
	"os"

	"savestate-server/pkg/logger"
)

func main() {
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
