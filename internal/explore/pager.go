// Package explore pages through the backend's occurrence search.
package explore

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/cmucal/internal/api"
	"github.com/julianstephens/cmucal/internal/constants"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
)

// Source is the slice of the API the pager needs.
type Source interface {
	ExploreOccurrences(ctx context.Context, q api.OccurrenceQuery) ([]models.Occurrence, error)
}

// Filter selects the listing. Changing it restarts paging.
type Filter struct {
	Term   string
	TagIDs []int64
	Date   *time.Time
}

// Pager accumulates pages of Limit occurrences. A page shorter than Limit
// ends the listing.
type Pager struct {
	src   Source
	limit int

	mu      sync.Mutex
	gen     uint64
	filter  Filter
	results []models.Occurrence
	offset  int
	hasMore bool
}

func NewPager(src Source) *Pager {
	return &Pager{src: src, limit: constants.ExplorePageSize, hasMore: true}
}

// Reset discards the current results and loads the first page for f.
func (p *Pager) Reset(ctx context.Context, f Filter) ([]models.Occurrence, error) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.filter = f
	p.results = nil
	p.offset = 0
	p.hasMore = true
	p.mu.Unlock()

	page, err := p.src.ExploreOccurrences(ctx, p.query(f, 0))
	if err != nil {
		logger.Error("Failed to fetch initial explore page", "error", err)
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return nil, apperrors.ErrSuperseded
	}
	p.results = append([]models.Occurrence(nil), page...)
	p.offset = p.limit
	p.hasMore = len(page) == p.limit
	return p.snapshot(), nil
}

// More appends the next page. It is a no-op once the listing is exhausted.
func (p *Pager) More(ctx context.Context) ([]models.Occurrence, error) {
	p.mu.Lock()
	if !p.hasMore {
		out := p.snapshot()
		p.mu.Unlock()
		return out, nil
	}
	gen, f, offset := p.gen, p.filter, p.offset
	p.mu.Unlock()

	page, err := p.src.ExploreOccurrences(ctx, p.query(f, offset))
	if err != nil {
		logger.Error("Failed to fetch next explore page", "offset", offset, "error", err)
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || offset != p.offset {
		return nil, apperrors.ErrSuperseded
	}
	p.results = append(p.results, page...)
	p.offset += p.limit
	if len(page) < p.limit {
		p.hasMore = false
	}
	return p.snapshot(), nil
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Pager) Results() []models.Occurrence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Pager) query(f Filter, offset int) api.OccurrenceQuery {
	return api.OccurrenceQuery{
		Term:   f.Term,
		TagIDs: f.TagIDs,
		Date:   f.Date,
		Limit:  p.limit,
		Offset: offset,
	}
}

// snapshot requires p.mu.
func (p *Pager) snapshot() []models.Occurrence {
	return append([]models.Occurrence(nil), p.results...)
}
