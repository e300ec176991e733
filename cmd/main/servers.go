package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"netsim-results/src/config"
	pb "netsim-results/src/grpc_control"
	"netsim-results/src/logger"
	"netsim-results/src/server"
)

// -----------------------------------------------------------------------------

// serve runs the HTTP API and the gRPC health service until SIGINT/SIGTERM
// or until one of them fails.
func serve(conf *config.Config, opts *options, appLogger *logger.Logger) error {
	db, err := setupDatabase(conf.MConfig, appLogger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	facade := setupAnalysis(conf.MConfig, appLogger, db)
	srv := server.NewResultsServer(conf.MConfig, appLogger.Named("Server"), facade)
	srv.Database = db

	// Seed the server with the given inputs, if any
	if len(opts.inputs) > 0 {
		if _, err := facade.Run(setupSource(opts.inputs, appLogger), opts.outPath, opts.chartsPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// 1. HTTP API + WebSocket hub
	g.Go(srv.Start)

	// 2. gRPC health
	var control *pb.ControlService
	if conf.GrpcPort != 0 {
		control = pb.NewControlService(conf.MConfig, appLogger.Named("ControlService"))
		g.Go(control.Start)
	}

	// 3. Shutdown on signal or first failure
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("Shutting down...")
		if control != nil {
			control.Stop()
		}
		return srv.Stop()
	})

	return g.Wait()
}
