// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/profiler"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/guardianwallet/config"
	"github.com/ava-labs/guardianwallet/internal/logging"
	"github.com/ava-labs/guardianwallet/rpc"
	"github.com/ava-labs/guardianwallet/server"
	"github.com/ava-labs/guardianwallet/storage"
	"github.com/ava-labs/guardianwallet/trace"
	"github.com/ava-labs/guardianwallet/wallet"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wallet service",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.LoadFile(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	log, err := logging.New(cfg.Log, "wallet")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	tracer, err := trace.New(&cfg.Trace)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	gatherer := metrics.NewPrefixGatherer()
	db, err := storage.New(cfg.Database, cfg.DataDir, "db", gatherer)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	ws, wsHandler := rpc.NewWebSocketServer(log, cfg.PubSub)
	d, registry, err := wallet.New(log, tracer, db, cfg.Rules(), cfg.GetChainID(), ws)
	if err != nil {
		return err
	}
	if err := gatherer.Register("wallet", registry); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.HTTP.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.ListenAddress, err)
	}
	srv := server.New(log, listener, cfg.HTTP)
	handler, err := server.NewHandler(rpc.NewJSONRPCServer(d, cfg.AllowDeposits), rpc.Name)
	if err != nil {
		return err
	}
	errs := wrappers.Errs{}
	errs.Add(
		srv.AddRoute(handler, rpc.Name, rpc.JSONRPCEndpoint),
		srv.AddRoute(wsHandler, rpc.Name, rpc.WebSocketEndpoint),
		srv.AddRoute(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), "metrics", ""),
	)
	if errs.Errored() {
		return errs.Err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Dispatch(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	var continuous profiler.ContinuousProfiler
	if cfg.Profiler.Enabled {
		continuous = profiler.NewContinuous(
			filepath.Join(cfg.DataDir, cfg.Profiler.Dir),
			cfg.Profiler.Freq,
			cfg.Profiler.MaxNumFiles,
		)
		g.Go(continuous.Dispatch)
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Error(context.Cause(gctx)))
		if continuous != nil {
			continuous.Shutdown()
		}
		errs := wrappers.Errs{}
		errs.Add(
			srv.Shutdown(),
			d.Close(),
			db.Close(),
			tracer.Close(),
		)
		return errs.Err
	})

	log.Info("wallet service started",
		zap.String("address", cfg.HTTP.ListenAddress),
		zap.Uint64("chainID", cfg.ChainID),
	)
	return g.Wait()
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "YAML config file (defaults if empty)")
	rootCmd.AddCommand(serveCmd)
}
