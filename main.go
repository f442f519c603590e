package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/health"
	"url-upload-bot/internal/history"
	"url-upload-bot/internal/mtproto"
	"url-upload-bot/internal/pkg"
	"url-upload-bot/internal/pkg/config"
	"url-upload-bot/internal/reconciler"
	"url-upload-bot/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	fileService := file.NewDefaultService(&cfg.FileService)
	if err := fileService.CreateFolder(); err != nil {
		log.Fatal(err)
	}

	recorder, err := history.Open(ctx, cfg.DB.URL)
	if err != nil {
		log.Fatal(err)
	}

	var mtprotoClient *mtproto.Client
	var large file.DocumentSender
	if cfg.MTProtoCfg.Enabled() {
		mtprotoClient, err = mtproto.NewClient(ctx, &cfg.MTProtoCfg, cfg.TelegramCfg.Token)
		if err != nil {
			log.Fatal(err)
		}
		large = mtprotoClient
	}

	httpClient := pkg.NewHTTPClient(cfg.Transfer.ConnectTimeout, cfg.Transfer.Timeout)
	bot, err := telegram.NewBot(cfg, httpClient, telegram.Deps{
		FileService: fileService,
		History:     recorder,
		Health:      health.NewProbe(fileService),
	}, large)
	if err != nil {
		log.Fatal(err)
	}
	bot.Start(ctx)

	reconcilerService := reconciler.NewDefaultService(fileService, &cfg.FileService)
	reconcilerService.Start(ctx)

	<-ctx.Done()
	slog.Info("Shutting down...")
	ctx, shutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdown()

	if err := bot.Wait(ctx); err != nil {
		slog.Error("Transfers did not finish in time", "error", err)
	}
	if err := reconcilerService.Stop(ctx); err != nil {
		slog.Error("Failed to stop reconciler", "error", err)
	}
	if mtprotoClient != nil {
		if err := mtprotoClient.Close(); err != nil {
			slog.Error("Failed to close MTProto client", "error", err)
		}
	}
	if err := recorder.Close(); err != nil {
		slog.Error("Failed to close history recorder", "error", err)
	}
}
