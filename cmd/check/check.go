package check

import (
	"github.com/spf13/cobra"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/sensor"
)

// Command creates the command that runs the pipeline self-checks.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the capture device, model and messengers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sensor.Check(settings)
		},
	}
}
