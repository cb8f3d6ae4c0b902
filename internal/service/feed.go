package service

import (
	"context"

	"github.com/pkordes/fare-ledger/internal/amount"
	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// FeedService builds section-annotated trip feeds. A nil query reads every
// trip; anything else searches, and a blank search matches nothing.
type FeedService struct {
	trips repo.TripRepo
	codec *amount.Codec
	gen   *Generation
}

// NewFeedService constructs a FeedService. Cursors it opens restart when gen
// changes.
func NewFeedService(trips repo.TripRepo, codec *amount.Codec, gen *Generation) *FeedService {
	return &FeedService{trips: trips, codec: codec, gen: gen}
}

// Page returns one stateless feed page.
func (s *FeedService) Page(ctx context.Context, query *string, p domain.PaginationParams) (FeedPage, error) {
	return s.aggregator(query).Page(ctx, p)
}

// Open starts a cursor over the whole feed. The caller must Close it.
func (s *FeedService) Open(query *string, limit int) *Cursor {
	return s.aggregator(query).Open(limit, s.gen)
}

func (s *FeedService) aggregator(query *string) *SectionAggregator {
	var src TripSource = NewAllTripsSource(s.trips)
	if query != nil {
		src = NewSearchTripsSource(s.trips, *query)
	}
	return NewSectionAggregator(src, s.codec)
}
