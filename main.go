package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	app "github.com/unitefour/unite4/internal"
	"github.com/unitefour/unite4/internal/config"
)

// main - is the entry point of the client. It initializes the configuration,
// logger, and runs the application. An optional first argument selects the
// match to join; every participant passing the same id lands in the same
// session.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig()
	logger := initLogger(conf)

	gameID := conf.GameID
	if len(os.Args) > 1 {
		gameID = os.Args[1]
	}

	if err := app.RunApp(logger, conf, gameID); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config.
func initConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "./config.yml"))
}

// initialize logger. The terminal is owned by the board, so logs go to a
// file next to the settings database.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}

	logFile, err := os.OpenFile("unite4.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		panic(fmt.Errorf("failed to open log file: %w", err))
	}

	return slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))
}
