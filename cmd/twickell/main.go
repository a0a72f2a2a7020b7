package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
}

func buildRoot() *cobra.Command {
	gf := &GlobalFlags{}
	root := &cobra.Command{
		Use:           "twickell",
		Short:         "Singleton process supervisor for the Twickell stack",
		Long:          "twickell checks, starts, and stops the local web API and the singleton background worker, guaranteeing at most one running instance per service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&gf.ConfigPath, "config", "c", "twickell.toml", "path to the TOML config file")

	root.AddCommand(
		createStatusCommand(gf),
		createStartCommand(gf),
		createStopCommand(gf),
		createRestartCommand(gf),
		createServeCommand(gf),
	)
	return root
}
