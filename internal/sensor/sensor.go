// Package sensor assembles the on-device pipeline from settings and
// drives it. The run, check, send and cleanup entry points share one
// assembly path so every mode exercises the same wiring.
package sensor

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldrec/fieldrec-go/internal/audio"
	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/logging"
	"github.com/fieldrec/fieldrec-go/internal/messenger"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
	"github.com/fieldrec/fieldrec-go/internal/tasks"
)

// runtime holds the assembled collaborators for one invocation.
type runtime struct {
	store      datastore.Interface
	outbox     outbox.Interface
	messengers []messenger.Messenger
	metrics    *observability.Metrics
	pipeline   *tasks.Pipeline
}

// assemble opens the stores and builds the full task graph.
func assemble(settings *conf.Settings) (*runtime, error) {
	store := datastore.NewSQLite(settings.Output.SQLite.Path)
	if err := store.Open(); err != nil {
		return nil, err
	}

	ob := outbox.NewSQLite(settings.Output.Outbox.Path)
	if err := ob.Open(); err != nil {
		_ = store.Close()
		return nil, err
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		_ = ob.Close()
		_ = store.Close()
		return nil, err
	}

	messengers := buildMessengers(settings)
	recorder := audio.NewRecorder(settings)
	model := audio.NewEnergyModel(settings)

	pipeline, err := tasks.NewPipeline(settings, store, ob, recorder, model, messengers, metrics)
	if err != nil {
		_ = ob.Close()
		_ = store.Close()
		return nil, err
	}

	return &runtime{
		store:      store,
		outbox:     ob,
		messengers: messengers,
		metrics:    metrics,
		pipeline:   pipeline,
	}, nil
}

// buildMessengers constructs one messenger per enabled transport.
func buildMessengers(settings *conf.Settings) []messenger.Messenger {
	var messengers []messenger.Messenger
	if settings.Messaging.MQTT.Enabled {
		messengers = append(messengers, messenger.NewMQTT(settings))
	}
	if settings.Messaging.HTTP.Enabled {
		messengers = append(messengers, messenger.NewHTTP(settings))
	}
	return messengers
}

// close releases the stores. Messengers are closed by the pipeline or
// by the one-shot entry points after their last send.
func (r *runtime) close() {
	if err := r.outbox.Close(); err != nil {
		logging.Error("Failed to close outbox store", "error", err)
	}
	if err := r.store.Close(); err != nil {
		logging.Error("Failed to close datastore", "error", err)
	}
}

// Run drives the full pipeline until an interrupt or termination signal.
func Run(settings *conf.Settings) error {
	rt, err := assemble(settings)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Telemetry.Enabled {
		observability.NewEndpoint(settings.Telemetry.Listen, rt.metrics).Start(ctx)
	}

	logging.Info("Field recorder starting",
		"name", settings.Main.Name,
		"schedule", settings.Recording.Schedule,
		"messengers", len(rt.messengers))

	err = rt.pipeline.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info("Field recorder stopped")
		return nil
	}
	return err
}
