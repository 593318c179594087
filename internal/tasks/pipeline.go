// pipeline.go: wires the task generators into a static task graph and
// drives them on their configured cadences. The recording task feeds
// the detection task; file management, outbox draining and heartbeats
// run independently.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/filemanager"
	"github.com/fieldrec/fieldrec-go/internal/messenger"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
	"github.com/fieldrec/fieldrec-go/internal/retention"
	"github.com/fieldrec/fieldrec-go/internal/schedule"
	"github.com/fieldrec/fieldrec-go/internal/suncalc"
)

// Sweep cadence for the temp directory.
const fileManagementInterval = time.Minute

// Number of detection workers consuming captured recordings.
const detectionWorkers = 2

// Pipeline holds the assembled task graph.
type Pipeline struct {
	settings *conf.Settings

	Recording      *RecordingTask
	Detection      *DetectionTask
	FileManagement *FileManagementTask
	Send           *MessageSendTask
	Heartbeat      *HeartbeatTask

	recorder   AudioRecorder
	model      Model
	messengers []messenger.Messenger
}

// NewPipeline assembles the task graph from settings. The caller
// supplies the capability implementations; everything else (schedule
// conditions, filter chain, cleaners, factories, file manager) is built
// from configuration.
func NewPipeline(settings *conf.Settings, store datastore.Interface, ob outbox.Interface,
	recorder AudioRecorder, model Model, messengers []messenger.Messenger,
	metrics *observability.Metrics) (*Pipeline, error) {

	intervals, err := schedule.ParseIntervals(settings.Recording.Schedule)
	if err != nil {
		return nil, errors.New(err).
			Component("tasks").
			Category(errors.CategoryConfiguration).
			Build()
	}
	condition := schedule.NewIntervalCondition(intervals...)

	loc, err := settings.TimeLocation()
	if err != nil {
		return nil, err
	}
	var sun *suncalc.SunCalc
	if settings.Retention.Solar.Enabled {
		sun = suncalc.New(settings.Main.Latitude, settings.Main.Longitude, loc)
	}
	filterChain, err := retention.FromSettings(settings, sun)
	if err != nil {
		return nil, err
	}

	var filters []ProcessingFilter
	cleaners := []ModelOutputCleaner{
		&ThresholdCleaner{Threshold: settings.Detection.CleanThreshold},
	}
	factories := []MessageFactory{&DetectionMessageFactory{}}

	manager := &filemanager.DateFileManager{BaseDir: settings.Recording.AudioPath}

	p := &Pipeline{
		settings:   settings,
		recorder:   recorder,
		model:      model,
		messengers: messengers,

		Recording: NewRecordingTask(condition, store, recorder, metrics),
		Detection: NewDetectionTask(store, ob, model, filters, cleaners, factories, metrics),
		FileManagement: NewFileManagementTask(store, filterChain, manager,
			settings.Recording.TempPath, metrics),
		Send:      NewMessageSendTask(ob, messengers, metrics),
		Heartbeat: NewHeartbeatTask(settings.Main.Name, ob, messengers),
	}
	return p, nil
}

// Check runs the collaborators' self-checks.
func (p *Pipeline) Check(ctx context.Context) error {
	return Check(ctx, p.recorder, p.model, p.messengers)
}

// Run drives the task graph until the context is cancelled. Cancellation
// gates the next dispatch only; an invoked task runs to completion.
func (p *Pipeline) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	// Capture feeds detection through a buffered channel; a small
	// worker pool absorbs model latency without blocking capture.
	captured := make(chan *datastore.Recording, detectionWorkers*2)

	for i := 0; i < detectionWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for recording := range captured {
				if _, err := p.Detection.Run(context.Background(), recording); err != nil {
					taskLogger.Error("Detection task failed",
						"recording_id", recording.ID, "error", err)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(captured)
		ticker := time.NewTicker(time.Duration(p.settings.Recording.Interval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				recording, err := p.Recording.Run(context.Background())
				if err != nil {
					taskLogger.Error("Recording task failed", "error", err)
					continue
				}
				if recording != nil {
					captured <- recording
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(ctx, fileManagementInterval, "file management", func(c context.Context) error {
			return p.FileManagement.Run(c)
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(ctx, time.Duration(p.settings.Messaging.SendInterval)*time.Second,
			"message send", func(c context.Context) error {
				return p.Send.Run(c)
			})
	}()

	if p.settings.Messaging.HeartbeatInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runEvery(ctx, time.Duration(p.settings.Messaging.HeartbeatInterval)*time.Second,
				"heartbeat", func(c context.Context) error {
					return p.Heartbeat.Run(c)
				})
		}()
	}

	wg.Wait()
	for _, m := range p.messengers {
		m.Close()
	}
	return ctx.Err()
}

// runEvery invokes fn on every tick until the context is cancelled.
// Errors are logged; recovery is simply the next scheduled invocation.
func runEvery(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(context.Background()); err != nil {
				taskLogger.Error("Task failed", "task", name, "error", err)
			}
		}
	}
}
