package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Visage/internal/adapters/console"
	"github.com/dkeye/Visage/internal/adapters/control"
	"github.com/dkeye/Visage/internal/adapters/provision"
	"github.com/dkeye/Visage/internal/adapters/room"
	"github.com/dkeye/Visage/internal/app/session"
	"github.com/dkeye/Visage/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.APIKey == "" || cfg.AgentID == "" {
		log.Fatal().Msg("VISAGE_API_KEY and VISAGE_AGENT_ID are required")
	}

	transport := room.NewTransport(room.Config{
		ICEServers:  room.DefaultConfig().ICEServers,
		DialTimeout: cfg.DialTimeout,
		PingPeriod:  cfg.PingPeriod,
	})

	ctrl := session.NewController(transport, console.Renderer{}, console.Projector{}, session.Options{
		LocalName:          cfg.LocalName,
		PublishOnConnect:   cfg.PublishOnConnect,
		CameraDeviceID:     cfg.CameraDevice,
		MicrophoneDeviceID: cfg.MicrophoneDevice,
	})

	if err := ctrl.Devices().Refresh(); err != nil {
		log.Warn().Err(err).Msg("initial device refresh failed")
	}

	api := provision.NewClient(cfg.APIURL, cfg.APIKey)
	call, err := api.CreateCall(ctx, cfg.AgentID)
	if err != nil {
		log.Fatal().Err(err).Msg("call provisioning failed")
	}
	ctrl.SetSessionID(call.ID)

	if err := ctrl.Connect(ctx, call.TransportURL, call.JoinToken); err != nil {
		log.Fatal().Err(err).Str("call_id", call.ID).Msg("connect failed")
	}

	r := control.SetupRouter(cfg.Mode, ctrl)
	addr := fmt.Sprintf(":%d", cfg.ControlPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Visage control surface started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("control server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	ctrl.Disconnect()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Client exited gracefully")
}
