package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/config"
)

const (
	configKeyServerURL      = "server-url"
	configKeyUseLocalServer = "use-local-server"
)

func newConfigCmd(v *viper.Viper) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the persisted settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, err := resolveDataDir(v)
			if err != nil {
				return err
			}
			path := config.GetConfigPath(dataDir)
			cfg, exists, loadErr := config.Load(path)

			out := struct {
				Path   string         `json:"path"`
				Exists bool           `json:"exists"`
				Config *config.Config `json:"config"`
				Error  string         `json:"load_error,omitempty"`
			}{
				Path:   path,
				Exists: exists,
				Config: cfg,
			}
			if loadErr != nil {
				out.Error = loadErr.Error()
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:       "set <server-url|use-local-server> <value>",
		Short:     "Change a setting and save it",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{configKeyServerURL, configKeyUseLocalServer},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfigStore(v)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			switch key {
			case configKeyServerURL:
				if err := store.SetServerURL(value); err != nil {
					return &configError{err}
				}
			case configKeyUseLocalServer:
				enabled, err := strconv.ParseBool(value)
				if err != nil {
					return &configError{fmt.Errorf("invalid value for %s: %q", key, value)}
				}
				if err := store.SetUseLocalServer(enabled); err != nil {
					return err
				}
			default:
				return &configError{fmt.Errorf("unknown setting %q (expected %s or %s)", key, configKeyServerURL, configKeyUseLocalServer)}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", key, store.Path())
			return nil
		},
	}

	configCmd.AddCommand(showCmd, setCmd)
	return configCmd
}

func openConfigStore(v *viper.Viper) (*config.Store, error) {
	dataDir, err := resolveDataDir(v)
	if err != nil {
		return nil, err
	}
	store, err := config.Open(config.GetConfigPath(dataDir), zap.NewNop())
	if err != nil {
		return nil, &configError{err}
	}
	return store, nil
}

// resolveDataDir returns the data directory without validating run settings
func resolveDataDir(v *viper.Viper) (string, error) {
	if dir := v.GetString(config.KeyDataDir); dir != "" {
		return dir, nil
	}
	dir, err := config.DefaultDataDir()
	if err != nil {
		return "", &configError{err}
	}
	return dir, nil
}
