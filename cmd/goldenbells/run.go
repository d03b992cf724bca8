package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/goldenbells-bot/internal/botbuilder"
	"github.com/park285/goldenbells-bot/internal/irisfast"
	"github.com/park285/goldenbells-bot/internal/obslog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Iris and answer commands until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateTransport(); err != nil {
		return err
	}
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL,
		irisfast.WithWSHeaders(cfg.Headers),
		irisfast.WithWSLogger(logger),
	)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})

	deps, err := botbuilder.New(ctx, cfg, botbuilder.IrisDirectory{Client: client}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("store_close_error", zap.Error(err))
		}
	}()

	egress, err := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)
	if err != nil {
		return err
	}

	r := newRelay(ctx, deps.Bot, egress, deps.Metrics, cfg.AllowedRooms, logger)
	ws.OnMessage(r.OnMessage)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, 10*time.Second)
		defer cancel()
		// a failed first dial keeps reconnecting in the background
		if err := ws.Connect(cctx); err != nil {
			logger.Warn("ws_initial_connect_failed", zap.Error(err))
		}
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return deps.Metrics.Serve(gctx, cfg.MetricsAddr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ws.Close(sctx)
		r.Wait()
		return nil
	})

	logger.Info("bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
