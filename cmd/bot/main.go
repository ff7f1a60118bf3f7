package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"programs-assistant/cmd"
	"programs-assistant/internal/bot"
	"syscall"

	"github.com/caarlos0/env/v11"
)

type BotConfig struct {
	cmd.StorageConfig
	cmd.ProgramsConfig
	cmd.AssistantConfig

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramDebug    bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`
}

func main() {
	log.Println("Starting telegram bot...")

	cmd.LoadEnvFile()

	var cfg BotConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cmd.CreateStorage(ctx, cfg.StorageConfig, false)
	programs := cmd.LoadPrograms(cfg.ProgramsConfig)
	assistant := cmd.CreateAssistant(ctx, cfg.AssistantConfig, store, programs)

	telegram, err := bot.NewTelegramBot(cfg.TelegramBotToken, cfg.TelegramDebug)
	if err != nil {
		log.Fatalf("Failed to start telegram bot: %v", err)
	}
	telegram.SetHandler(bot.NewHandler(assistant.Sessions, assistant.Asker, telegram))

	slog.Info("bot started", "programs", len(programs))
	if err := telegram.Run(ctx); err != nil {
		log.Fatalf("Bot stopped with error: %v", err)
	}

	slog.Info("bot stopped")
}
