package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/emergency-beacon/internal/config"
	"github.com/oshokin/emergency-beacon/internal/service/client"
	"github.com/oshokin/emergency-beacon/internal/version"
)

var (
	// options is shared by every subcommand; flags write into it.
	options client.Options

	// latitude and longitude hold raw flag values so "not given" can be told apart from zero.
	latitude  float64
	longitude float64

	// rootCmd represents the base command for the beacon client.
	rootCmd = &cobra.Command{
		Use:   "beacon-client",
		Short: "Talk to the emergency beacon server.",
		Long: `Client for the emergency beacon server.

Use "heartbeat" on the person's device to keep monitoring fresh, "alert" to send a
manual emergency alert, "start"/"stop" to arm or disarm automatic alerts and
"status" to inspect the last heartbeat and location.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("lat") {
				options.Latitude = &latitude
			}

			if cmd.Flags().Changed("lon") {
				options.Longitude = &longitude
			}
		},
	}

	heartbeatCmd = &cobra.Command{
		Use:   "heartbeat",
		Short: "Send heartbeats until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.RunHeartbeat(ctx, &options)
		},
	}

	alertCmd = &cobra.Command{
		Use:   "alert",
		Short: "Send a manual emergency alert for --lat/--lon.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.RunAlert(cmd.Context(), &options, cmd.OutOrStdout())
		},
	}

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Arm automatic alerts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.RunMonitoring(cmd.Context(), &options, true, cmd.OutOrStdout())
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Disarm automatic alerts until the next heartbeat.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.RunMonitoring(cmd.Context(), &options, false, cmd.OutOrStdout())
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the last heartbeat, location and monitoring state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.RunStatus(cmd.Context(), &options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the beacon-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "s", "", "server gRPC address, overrides grpc_addr")
	flags.Float64Var(&latitude, "lat", 0, "latitude in decimal degrees")
	flags.Float64Var(&longitude, "lon", 0, "longitude in decimal degrees")

	heartbeatCmd.Flags().DurationVarP(&options.Interval, "interval", "i", client.DefaultHeartbeatInterval, "time between heartbeats")
	heartbeatCmd.Flags().IntVar(&options.Count, "count", 0, "stop after this many heartbeats (0 runs until interrupted)")
	heartbeatCmd.Flags().BoolVar(&options.UseNATS, "nats", false, "publish heartbeats on the NATS heartbeat subject")

	alertCmd.Flags().StringVarP(&options.AlertType, "type", "t", "", `alert template: "manual" (default) or "auto"`)

	rootCmd.AddCommand(heartbeatCmd, alertCmd, startCmd, stopCmd, statusCmd)
}
