package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamvkosarev/ai-baby-bot/config"
	"github.com/iamvkosarev/ai-baby-bot/internal/app"
	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the yaml config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		xlog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Run(ctx, cfg); err != nil {
		xlog.Error("AI baby failed", "error", err)
		os.Exit(1)
	}
}
