package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/emergency-beacon/internal/config"
	"github.com/oshokin/emergency-beacon/internal/service/server"
	"github.com/oshokin/emergency-beacon/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// httpAddress overrides http_addr from the configuration file.
	httpAddress string

	// rootCmd represents the base command for running the beacon server.
	rootCmd = &cobra.Command{
		Use:   "beacon-server [grpc-listen-address]",
		Short: "Run the emergency beacon server.",
		Long: `Starts the emergency beacon server.

The server records heartbeats from the person's device over gRPC, HTTP or NATS,
and sends an automatic alert with the last known location when heartbeats stop
for longer than the configured staleness threshold. Manual alerts are sent on request.

Only the port from grpc_addr config is used for listening (e.g., :50051) unless the
address is a loopback one. Listen address can be provided as argument to override config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
			})
		},
	}
)

// Execute runs the beacon-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&httpAddress, "http-addr", "", `HTTP listen address override ("off" disables)`)
}
