package cleanup

import (
	"github.com/spf13/cobra"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/sensor"
)

// Command creates the command that runs one file management pass.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Settle pending recording files once",
		Long:  "Evaluate the saving filters over every file in the temp directory, relocating keepers and deleting the rest, then exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sensor.CleanupOnce(settings)
		},
	}
}
