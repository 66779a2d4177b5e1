package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ydb-platform/ydb-go-tagpool/internal/version"
)

const envPrefix = "TAGPOOL"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tagpool-stress",
		Short:         "Stress a tagged session pool against an in-memory backend",
		Long:          "tagpool-stress runs concurrent workers acquiring sessions with random tags, reconciling them with a local procedure, and prints pool statistics.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.FullVersion)

			return err
		},
	}
}

// newConfig binds flags of cmd to viper with TAGPOOL_* environment overrides
func newConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	return v, nil
}
