package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldrec/fieldrec-go/cmd/check"
	"github.com/fieldrec/fieldrec-go/cmd/cleanup"
	"github.com/fieldrec/fieldrec-go/cmd/run"
	"github.com/fieldrec/fieldrec-go/cmd/send"
	"github.com/fieldrec/fieldrec-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fieldrec",
		Short: "Field acoustic recorder CLI",
	}

	// Set up the global flags for the root command.
	err := setupFlags(rootCmd, settings)
	if err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	subcommands := []*cobra.Command{
		run.Command(settings),
		check.Command(settings),
		send.Command(settings),
		cleanup.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures the global flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Main.Name, "name", viper.GetString("main.name"), "Node name used as message source")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "database", viper.GetString("output.sqlite.path"), "Path to the metadata database")
	rootCmd.PersistentFlags().StringVar(&settings.Output.Outbox.Path, "outbox", viper.GetString("output.outbox.path"), "Path to the outbox database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
