package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/peercalls/internal/adapters/http"
	"github.com/dkeye/peercalls/internal/adapters/rtc"
	sig "github.com/dkeye/peercalls/internal/adapters/signal"
	"github.com/dkeye/peercalls/internal/app"
	"github.com/dkeye/peercalls/internal/app/media"
	"github.com/dkeye/peercalls/internal/config"
	"github.com/dkeye/peercalls/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	store := app.NewStore(cfg.NotificationsLimit)
	player := media.NewPlayer(ctx, store)
	store.Subscribe(player.OnAction)
	defer player.Stop()

	reg := app.NewRegistry(rtc.Factory{}, store, player, rtc.ICEServers(cfg.ICEServers))
	defer reg.Clear()

	client := sig.NewClient(cfg.SignalURL, domain.NewParticipantID(), sig.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
	})
	if err := client.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("signaling connect")
	}
	defer client.Close()

	hs := &app.Handshake{Registry: reg, Channel: client}
	go func() {
		client.Run(ctx, hs)
		cancel()
	}()
	if err := client.Join(cfg.Room); err != nil {
		log.Error().Err(err).Str("room", cfg.Room).Msg("join room")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router.SetupRouter(cfg, &router.API{Peers: reg, State: store, Stats: player}),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("sid", string(client.ID())).Msg("peercalls client started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Client exited gracefully")
}
