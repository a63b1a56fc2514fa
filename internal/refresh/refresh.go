package refresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"hirecal/internal/config"
	"hirecal/internal/ics"
	appLog "hirecal/internal/log"
	"hirecal/internal/store"
)

// horizonDays bounds how far ahead feed imports expand recurring
// interview series.
const horizonDays = 60

// Runner periodically re-imports the subscribed ICS feeds into the
// event store on the configured cron schedule.
type Runner struct {
	cfg     *config.Config
	events  *store.Store
	fetcher *ics.Fetcher
	cron    *cron.Cron
}

// New creates a Runner. cacheDir is handed to the feed fetcher.
func New(cfg *config.Config, events *store.Store, cacheDir string) *Runner {
	return &Runner{
		cfg:     cfg,
		events:  events,
		fetcher: ics.NewFetcher(cacheDir),
		cron:    cron.New(),
	}
}

// RunOnce performs a single import cycle: fetch every configured feed,
// expand it, and replace that feed's events in the store.
func (r *Runner) RunOnce(ctx context.Context) error {
	sources := make([]ics.Source, 0, len(r.cfg.Feeds))
	for _, feed := range r.cfg.Feeds {
		if feed.URL == "" {
			continue
		}
		id := feed.ID
		if id == "" {
			id = feed.Name
		}
		if id == "" {
			id = feed.URL
		}
		sources = append(sources, ics.Source{ID: id, URL: feed.URL})
	}
	if len(sources) == 0 {
		appLog.Debug("refresh: no feeds configured")
		return nil
	}

	window := ics.DefaultWindow(time.Now(), horizonDays, r.cfg.Location())
	bySource, errs := r.fetcher.ImportAll(ctx, sources, window)
	for _, err := range errs {
		appLog.Error("refresh: feed import error", err)
	}

	for source, events := range bySource {
		if err := r.events.ReplaceSource(source, events); err != nil {
			appLog.Error("refresh: store replace failed", err, "source", source)
			continue
		}
		appLog.Info("refresh: feed imported", "source", source, "event_count", len(events))
	}
	return nil
}

// Start schedules RunOnce on the configured cron expression and runs an
// initial import immediately. It blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.RunOnce(ctx); err != nil {
		appLog.Error("refresh: initial import failed", err)
	}

	_, err := r.cron.AddFunc(r.cfg.RefreshCron, func() {
		if err := r.RunOnce(ctx); err != nil {
			appLog.Error("refresh: scheduled import failed", err)
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	<-ctx.Done()

	stopCtx := r.cron.Stop()
	// Let an in-flight import finish before returning.
	<-stopCtx.Done()
	return nil
}
