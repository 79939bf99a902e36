package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/soberline/soberline/internal/api"
	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/config"
	"github.com/soberline/soberline/internal/httpserver"
	"github.com/soberline/soberline/internal/meetingguide"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/reflection"
	"github.com/soberline/soberline/internal/signaling"
	"github.com/soberline/soberline/internal/store"
)

func main() {
	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid configuration")
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid logger configuration")
	}

	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()
	log.Info().Str("path", cfg.DatabasePath).Msg("connected to database")

	reflections, err := reflection.NewService()
	if err != nil {
		log.Fatal().Err(err).Msg("load reflections")
	}

	m := metrics.New()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	meetings := meetingguide.NewClient(cfg.MeetingGuideURL, nil)

	restAPI := api.New(cfg, st, tokens, reflections, meetings, m, log)
	relay := signaling.NewServer(cfg, tokens, signaling.NewRegistry(), m, log)
	srv := httpserver.New(cfg, restAPI.Routes(), relay, st, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("goodbye")
}
