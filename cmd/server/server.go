package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/metrics"
	"fenrir/internal/net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var (
		address     string
		port        int
		metricsAddr string
	)

	root := &cobra.Command{
		Use:   "fenrir-server",
		Short: "Run the fenrir matching engine and its TCP front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(address, port, metricsAddr)
		},
	}

	root.Flags().StringVar(&address, "address", "0.0.0.0", "TCP listen address")
	root.Flags().IntVar(&port, "port", 9001, "TCP listen port")
	root.Flags().StringVar(&metricsAddr, "metrics-address", ":9100", "Prometheus /metrics listen address")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(address string, port int, metricsAddr string) error {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	recorder := metrics.NewRecorder()
	go func() {
		if err := recorder.Serve(ctx, metricsAddr); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// srv is constructed before eng because eng needs a TradeSink and the
	// sink it needs *is* the server (trades are reported back over the
	// same connections the commands arrived on); eng is wired into srv
	// immediately after.
	srv := net.New(address, port, nil)
	srv.SetRecorder(recorder)
	eng := engine.New(metrics.WrapSink(srv, recorder), common.Equities)
	srv.SetEngine(eng)

	go srv.Run(ctx)

	log.Info().Str("address", address).Int("port", port).Msg("fenrir running")
	<-ctx.Done()
	return nil
}
