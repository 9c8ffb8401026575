package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/rs/cors"

	"tomp3/internal/application/queue"
	"tomp3/internal/config"
	"tomp3/internal/infrastructure/ffmpeg"
	"tomp3/internal/infrastructure/webfetch"
	httptransport "tomp3/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	engine := ffmpeg.NewEngine(cfg.FFmpegPath, cfg.WorkDir, cfg.AudioBitrate, logger)
	engine.Start()

	fetcher := webfetch.NewClient(cfg.ProbeTimeout(), cfg.FetchTimeout(), cfg.MaxFetchBytes())
	queueService := queue.NewService(engine, fetcher, logger)

	handler := httptransport.NewHandler(queueService, engine, cfg.MaxUploadBytes())
	router := httptransport.NewRouter(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	})

	logger.Info("server started", "addr", cfg.ServerAddr)
	if err := http.ListenAndServe(cfg.ServerAddr, c.Handler(router)); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
