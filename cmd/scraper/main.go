package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"programs-assistant/cmd"
	"programs-assistant/internal/scraper"
	"syscall"

	"github.com/caarlos0/env/v11"
)

type ScraperConfig struct {
	cmd.StorageConfig
	cmd.ProgramsConfig

	Quiet bool `env:"SCRAPER_QUIET" envDefault:"false"`
}

func main() {
	log.Println("Starting scraper...")

	cmd.LoadEnvFile()

	var cfg ScraperConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cmd.CreateStorage(ctx, cfg.StorageConfig, true)
	programs := cmd.LoadPrograms(cfg.ProgramsConfig)

	var opts []scraper.Option
	if cfg.Quiet {
		opts = append(opts, scraper.WithProgress(nil))
	}

	scraper.NewScraper(store, programs, opts...).Run(ctx)

	log.Println("Scraping finished. Text files are ready for the bot.")
}
