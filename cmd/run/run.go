package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/sensor"
)

// Command creates the command that drives the full recording pipeline.
func Command(settings *conf.Settings) *cobra.Command {
	var generateConfig string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the recording pipeline",
		Long:  "Capture audio on the configured schedule, run detection, retain files per policy and forward messages until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generateConfig != "" {
				if err := conf.SaveYAMLConfig(generateConfig, settings); err != nil {
					return err
				}
				fmt.Println("Wrote configuration to:", generateConfig)
				return nil
			}
			return sensor.Run(settings)
		},
	}

	cmd.Flags().StringVar(&generateConfig, "generate-config", "", "Write the effective configuration to the given path and exit")

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the run command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Recording.TempPath, "temppath", viper.GetString("recording.temppath"), "Directory for freshly captured audio")
	cmd.Flags().StringVar(&settings.Recording.AudioPath, "audiopath", viper.GetString("recording.audiopath"), "Directory for retained audio")
	cmd.Flags().IntVar(&settings.Recording.Interval, "interval", viper.GetInt("recording.interval"), "Seconds between capture attempts")
	cmd.Flags().StringSliceVar(&settings.Recording.Schedule, "schedule", viper.GetStringSlice("recording.schedule"), "Recording windows as \"HH:MM-HH:MM\"")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
