package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Wordbrain/internal/adapters/http"
	"github.com/dkeye/Wordbrain/internal/adapters/rooms"
	wsignal "github.com/dkeye/Wordbrain/internal/adapters/signal"
	"github.com/dkeye/Wordbrain/internal/adapters/terminal"
	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/config"
	"github.com/dkeye/Wordbrain/internal/grid"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr so they never interleave with the rendered game on stdout.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	roomAPI, err := rooms.NewClient(cfg.ServerURL, cfg.APITimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("room api client")
	}
	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		log.Fatal().Err(err).Msg("websocket url")
	}
	mode, err := grid.ParseMode(cfg.SelectionMode)
	if err != nil {
		log.Fatal().Err(err).Msg("selection mode")
	}

	conn := wsignal.NewConnectionManager(wsignal.Options{
		URL:          wsURL,
		MaxAttempts:  cfg.Reconnect.MaxAttempts,
		BaseDelay:    cfg.Reconnect.BaseDelay,
		WriteTimeout: cfg.WriteTimeout,
		PingPeriod:   cfg.PingPeriod,
		SendBuffer:   cfg.SendBuffer,
	})
	ctrl := session.NewController(ctx, session.Deps{
		Transport:            conn,
		Rooms:                roomAPI,
		Grid:                 grid.NewEngine(mode),
		Canvas:               session.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		TickInterval:         cfg.TickInterval,
		RoomRefreshInterval:  cfg.RoomRefreshInterval,
		RequestTimeout:       cfg.APITimeout,
		DefaultLevelCount:    cfg.DefaultLevelCount,
		DefaultLevelDuration: cfg.DefaultLevelSeconds,
	})
	conn.Bind(ctrl)

	var srv *http.Server
	if cfg.ControlAddr != "" {
		srv = &http.Server{
			Addr:    cfg.ControlAddr,
			Handler: router.SetupRouter(cfg, ctrl),
		}
		go func() {
			log.Info().Str("addr", cfg.ControlAddr).Msg("control api started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("control api error")
			}
		}()
	}

	term := terminal.New(ctrl, os.Stdin, os.Stdout, terminal.Options{ServerURL: cfg.ServerURL, ShareQR: cfg.ShareQR})
	if err := term.Run(ctx); err != nil {
		log.Error().Err(err).Msg("terminal input")
	}

	log.Info().Msg("Shutting down")
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("control api forced to shutdown")
		}
	}
	ctrl.Post(session.LeaveRoom{})
	ctrl.Post(session.Shutdown{})
	select {
	case <-ctrl.Done():
	case <-time.After(2 * time.Second):
		log.Warn().Msg("session did not stop in time")
	}
	log.Info().Msg("Wordbrain exited")
}
