package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/conf"
)

// checkTimeout bounds the whole self-check run.
const checkTimeout = 30 * time.Second

// Check assembles the pipeline and runs the collaborators' self-checks:
// capture device, model and every enabled messenger.
func Check(settings *conf.Settings) error {
	rt, err := assemble(settings)
	if err != nil {
		return err
	}
	defer rt.close()
	defer closeMessengers(rt)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := rt.pipeline.Check(ctx); err != nil {
		return err
	}
	fmt.Println("all checks passed")
	return nil
}

func closeMessengers(rt *runtime) {
	for _, m := range rt.messengers {
		m.Close()
	}
}
