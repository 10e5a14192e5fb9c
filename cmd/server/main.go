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
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/callsession/internal/adapters/http"
	"github.com/dkeye/callsession/internal/adapters/rtc"
	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/app/orch"
	"github.com/dkeye/callsession/internal/config"
	"github.com/dkeye/callsession/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
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

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	policy, err := app.ParseBackpressureAction(cfg.Session.Backpressure)
	if err != nil {
		return err
	}
	callPolicy, err := app.ParseCallAction(cfg.Session.CallPolicy)
	if err != nil {
		return err
	}

	engine, err := rtc.Dial(ctx, rtc.Options{
		URL:         cfg.Engine.GatewayURL,
		ICEServers:  cfg.Engine.ICEServers,
		DialTimeout: cfg.Engine.DialTimeout,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	session := orch.New(engine, core.NewBus(cfg.Session.Mailbox), orch.Options{
		Credentials: core.RegisterParams{
			Region:    cfg.Engine.Region,
			AccessKey: cfg.Engine.AccessKey,
			ClientID:  cfg.Engine.ClientID,
			LogLevel:  cfg.Engine.LogLevel,
			Token:     cfg.Engine.Token,
		},
		Policy:          app.SimplePolicy{Action: policy},
		CallPolicy:      app.SimpleCallPolicy{Action: callPolicy},
		Queue:           cfg.Session.Queue,
		RegisterTimeout: cfg.Engine.RegisterTimeout,
	})
	reg := app.NewRegistry()
	reg.Bind(session)
	defer reg.Unbind(session)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupRouter(ctx, cfg, reg),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(ctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("call session server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})
	return g.Wait()
}
