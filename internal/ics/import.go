package ics

import (
	"context"

	appLog "hirecal/internal/log"
	"hirecal/internal/model"
)

// ImportAll runs the fetch, parse, expand cycle for every source and
// returns the resulting events grouped by source ID, ready for
// Store.ReplaceSource. Failures are per-source: a broken feed is
// reported in the error slice and leaves the other feeds' results
// intact.
func (f *Fetcher) ImportAll(ctx context.Context, sources []Source, w Window) (map[string][]model.Event, []error) {
	results, errs := f.FetchAll(ctx, sources)

	bySource := make(map[string][]model.Event, len(results))
	for _, res := range results {
		raws, err := parseFeed(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			continue
		}

		events, err := expandAll(raws, w)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("feed expand failed", err, "id", res.Source.ID)
			continue
		}
		bySource[res.Source.ID] = events
	}
	return bySource, errs
}
