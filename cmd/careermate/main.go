package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Suveerkh/CareerMate/internal/config"
)

var version = "v0.1.0" // This will be injected by -ldflags during build

func main() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCodeFor(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code != ExitCodeGeneralError {
			fmt.Fprintf(os.Stderr, "Exit code %d: %s\n", code, exitCodeDescription(code))
		}
		os.Exit(code)
	}
}

// newRootCmd builds the command tree around a fresh viper instance
func newRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           "careermate",
		Short:         "CareerMate desktop shell - shows the CareerMate site and keeps a local server as fallback",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}

	d := config.DefaultSettings()
	flags := rootCmd.PersistentFlags()
	flags.StringP(config.KeyDataDir, "d", "", "Data directory path (default: user config dir/CareerMate)")
	flags.String(config.KeyLogLevel, d.LogLevel, "Log level (debug, info, warn, error)")
	flags.Bool(config.KeyLogToFile, d.LogToFile, "Enable logging to file in standard OS location")
	flags.String(config.KeyLogDir, "", "Custom log directory path (overrides standard OS location)")

	runFlags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	runFlags.Duration(config.KeyProbeInterval, d.ProbeInterval, "Interval between connectivity checks")
	runFlags.Duration(config.KeyProbeTimeout, d.ProbeTimeout, "Timeout for a single endpoint probe")
	runFlags.Int(config.KeyBackendPort, d.BackendPort, "Port of the local server")
	runFlags.String(config.KeyBackendCommand, d.BackendCommand, "Interpreter used to launch the local server")
	runFlags.StringSlice(config.KeyBackendArgs, d.BackendArgs, "Arguments for the local server command (--port is appended)")
	runFlags.String(config.KeyBackendDir, "", "Working directory of the local server (default: next to the executable)")
	runFlags.Duration(config.KeyStopGracePeriod, d.StopGracePeriod, "Time the local server gets to exit before it is killed")
	runFlags.Bool(config.KeyEagerBackendLaunch, d.EagerBackendLaunch, "Start the local server at launch when local fallback is enabled")
	runFlags.String(config.KeyLocalHost, d.LocalHost, "Host name of the local server")
	runFlags.String(config.KeyLocalLandingPath, d.LocalLandingPath, "Page opened when the local server wins")
	runFlags.StringSlice(config.KeyMirrors, d.Mirrors, "Mirror URLs probed after the primary server")
	runFlags.StringSlice(config.KeyInternetSites, d.InternetSites, "Sites used for the startup internet check")
	runFlags.String(config.KeyUpdateRepo, d.UpdateRepo, "GitHub repository checked for updates")
	runFlags.String(config.KeyDiagnosticsListen, "", "Address for the diagnostics server (/metrics, /status, /history); disabled when empty")
	runFlags.String(config.KeyTracingEndpoint, "", "OTLP HTTP endpoint for traces; disabled when empty")
	runFlags.String(config.KeyUIMode, d.UIMode, "Window mode: browser, tui or headless")
	runFlags.Bool(config.KeyNotifications, d.Notifications, "Show desktop notifications")
	rootCmd.Flags().AddFlagSet(runFlags)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the desktop shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}
	runCmd.Flags().AddFlagSet(runFlags)

	rootCmd.AddCommand(
		runCmd,
		newConfigCmd(v),
		newHistoryCmd(v),
		newVersionCmd(v),
	)

	// Flags are bound when a command runs so the executing command's flag set wins
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(v, cmd)
	}

	return rootCmd
}

// bindFlags binds every flag of cmd that names a setting key
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
