package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/updatecheck"
)

func newVersionCmd(v *viper.Viper) *cobra.Command {
	var check bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and optionally check for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CareerMate %s\n", version)
			if !check {
				return nil
			}

			repo := v.GetString(config.KeyUpdateRepo)
			if repo == "" {
				repo = config.DefaultSettings().UpdateRepo
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			info := updatecheck.New(zap.NewNop(), version, repo).CheckNow(ctx)
			switch {
			case info.UpdateAvailable:
				fmt.Fprintf(out, "Update available: %s (%s)\n", info.LatestVersion, info.ReleaseURL)
			case info.CheckError != "":
				fmt.Fprintf(out, "Update check did not complete: %s\n", info.CheckError)
			default:
				fmt.Fprintln(out, "CareerMate is up to date")
			}
			return nil
		},
	}

	versionCmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return versionCmd
}
