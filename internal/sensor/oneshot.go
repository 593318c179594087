package sensor

import (
	"context"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/logging"
)

// oneshotTimeout bounds a single drain or cleanup invocation.
const oneshotTimeout = 5 * time.Minute

// SendOnce drains the outbox through the enabled messengers a single
// time and exits. Useful from cron or for testing connectivity.
func SendOnce(settings *conf.Settings) error {
	rt, err := assemble(settings)
	if err != nil {
		return err
	}
	defer rt.close()
	defer closeMessengers(rt)

	ctx, cancel := context.WithTimeout(context.Background(), oneshotTimeout)
	defer cancel()

	logging.Info("Draining outbox", "messengers", len(rt.messengers))
	return rt.pipeline.Send.Run(ctx)
}

// CleanupOnce runs a single file management pass over the temp
// directory, settling every pending recording file.
func CleanupOnce(settings *conf.Settings) error {
	rt, err := assemble(settings)
	if err != nil {
		return err
	}
	defer rt.close()
	defer closeMessengers(rt)

	ctx, cancel := context.WithTimeout(context.Background(), oneshotTimeout)
	defer cancel()

	logging.Info("Running file management pass", "temp_path", settings.Recording.TempPath)
	return rt.pipeline.FileManagement.Run(ctx)
}
