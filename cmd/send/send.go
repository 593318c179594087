package send

import (
	"github.com/spf13/cobra"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/sensor"
)

// Command creates the command that drains the outbox once.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Drain the message outbox once",
		Long:  "Send every unsent outbox message through the enabled messengers, record the responses and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sensor.SendOnce(settings)
		},
	}
}
