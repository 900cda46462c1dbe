package ics

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
)

// Importer fetches and expands a set of configured feeds.
type Importer struct {
	fetcher *Fetcher
	sources []Source
}

func NewImporter(fetcher *Fetcher, feeds []config.ICSConfig) *Importer {
	sources := make([]Source, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, Source{ID: f.ID, Name: f.Name, URL: f.URL})
	}
	return &Importer{fetcher: fetcher, sources: sources}
}

func (im *Importer) Sources() []Source {
	return append([]Source(nil), im.sources...)
}

// Import returns the events of every feed in configuration order. A feed
// that fails is skipped; the joined error reports it alongside the events
// that did load.
func (im *Importer) Import(ctx context.Context, w Window) ([]models.Event, error) {
	results, errs := im.fetcher.FetchAll(ctx, im.sources)

	var events []models.Event
	for _, res := range results {
		entries, err := ParseBytes(res.Body, w.Loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Source.ID, err))
			continue
		}
		expanded, err := Expand(res.Source, entries, w)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Source.ID, err))
			continue
		}
		logger.Debug("ICS feed imported", "id", res.Source.ID, "entries", len(entries), "events", len(expanded), "from_cache", res.FromCache)
		events = append(events, expanded...)
	}
	return events, errors.Join(errs...)
}
