package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/fare-ledger/internal/amount"
	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// TripSource is the data strategy behind a SectionAggregator.
type TripSource interface {
	// Page returns one page of trips, newest first.
	Page(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error)
	// IsEmpty reports whether Page would never return a trip.
	IsEmpty(ctx context.Context) (bool, error)
	// SumFares returns the fare total of all trips dated in [from, to].
	SumFares(ctx context.Context, from, to time.Time) (int64, error)
}

// AllTripsSource pages through every stored trip.
type AllTripsSource struct {
	trips repo.TripRepo
}

// NewAllTripsSource returns a TripSource over the full trip set.
func NewAllTripsSource(trips repo.TripRepo) *AllTripsSource {
	return &AllTripsSource{trips: trips}
}

func (s *AllTripsSource) Page(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	return s.trips.ListPaged(ctx, p)
}

func (s *AllTripsSource) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.trips.Count(ctx)
	return n == 0, err
}

func (s *AllTripsSource) SumFares(ctx context.Context, from, to time.Time) (int64, error) {
	return s.trips.SumFaresBetween(ctx, from, to)
}

// SearchTripsSource pages through trips matching a free-text query on start
// city, end city and notes. Month sums still cover every trip of the month.
type SearchTripsSource struct {
	trips repo.TripRepo
	query string
}

// NewSearchTripsSource returns a TripSource filtered by query. A blank query
// matches nothing.
func NewSearchTripsSource(trips repo.TripRepo, query string) *SearchTripsSource {
	return &SearchTripsSource{trips: trips, query: strings.TrimSpace(query)}
}

func (s *SearchTripsSource) Page(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	if s.query == "" {
		return nil, nil
	}
	return s.trips.SearchPaged(ctx, s.query, p)
}

func (s *SearchTripsSource) IsEmpty(ctx context.Context) (bool, error) {
	if s.query == "" {
		return true, nil
	}
	n, err := s.trips.SearchCount(ctx, s.query)
	return n == 0, err
}

func (s *SearchTripsSource) SumFares(ctx context.Context, from, to time.Time) (int64, error) {
	return s.trips.SumFaresBetween(ctx, from, to)
}

// ItemKind tells list items apart.
type ItemKind string

const (
	ItemSection ItemKind = "section"
	ItemEntry   ItemKind = "entry"
)

// MonthSection heads the trips of one calendar month.
type MonthSection struct {
	Month       domain.Month
	Label       string
	FareSum     int64
	FareSumText string
}

// ListItem is either a month section header or a trip entry.
type ListItem struct {
	Kind    ItemKind
	Section *MonthSection
	Trip    *domain.Trip
}

// FeedPage is one page of section-annotated trips.
type FeedPage struct {
	Items []ListItem
	// Empty reports whether the source has no trips at all, not just on this page.
	Empty bool
}

// SectionAggregator interleaves month section headers into a stream of trips.
// A header precedes a trip whenever its month differs from the previous
// trip's month. Month totals come from the source's range sum, never from the
// trips loaded so far, because a month may span several pages.
type SectionAggregator struct {
	src   TripSource
	codec *amount.Codec
}

// NewSectionAggregator returns an aggregator over src.
func NewSectionAggregator(src TripSource, codec *amount.Codec) *SectionAggregator {
	return &SectionAggregator{src: src, codec: codec}
}

// Page returns page p in isolation. For pages after the first, the trip just
// before the page is fetched so a month continuing from the previous page
// does not get a second header.
func (a *SectionAggregator) Page(ctx context.Context, p domain.PaginationParams) (FeedPage, error) {
	empty, err := a.src.IsEmpty(ctx)
	if err != nil {
		return FeedPage{}, fmt.Errorf("service.SectionAggregator.Page: %w", err)
	}
	if empty {
		return FeedPage{Items: []ListItem{}, Empty: true}, nil
	}

	trips, err := a.src.Page(ctx, p)
	if err != nil {
		return FeedPage{}, fmt.Errorf("service.SectionAggregator.Page: %w", err)
	}

	var prev *domain.Month
	if p.Offset() > 0 && len(trips) > 0 {
		// Page with limit 1 numbered Offset() is the row at offset Offset()-1.
		before, err := a.src.Page(ctx, domain.PaginationParams{Page: p.Offset(), Limit: 1})
		if err != nil {
			return FeedPage{}, fmt.Errorf("service.SectionAggregator.Page: previous trip: %w", err)
		}
		if len(before) == 1 {
			m := domain.MonthOf(before[0].Date)
			prev = &m
		}
	}

	items, _, err := a.annotate(ctx, trips, prev, map[domain.Month]int64{})
	if err != nil {
		return FeedPage{}, fmt.Errorf("service.SectionAggregator.Page: %w", err)
	}
	return FeedPage{Items: items}, nil
}

// annotate emits sections and entries for trips, continuing from prev, and
// returns the month of the last trip. sums memoizes month totals.
func (a *SectionAggregator) annotate(ctx context.Context, trips []domain.Trip, prev *domain.Month, sums map[domain.Month]int64) ([]ListItem, *domain.Month, error) {
	items := make([]ListItem, 0, len(trips)+1)
	for i := range trips {
		m := domain.MonthOf(trips[i].Date)
		if prev == nil || *prev != m {
			sec, err := a.section(ctx, m, sums)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, ListItem{Kind: ItemSection, Section: sec})
			prev = &m
		}
		items = append(items, ListItem{Kind: ItemEntry, Trip: &trips[i]})
	}
	return items, prev, nil
}

func (a *SectionAggregator) section(ctx context.Context, m domain.Month, sums map[domain.Month]int64) (*MonthSection, error) {
	sum, ok := sums[m]
	if !ok {
		var err error
		sum, err = a.src.SumFares(ctx, m.FirstDay(), m.LastDay())
		if err != nil {
			return nil, fmt.Errorf("month sum %s: %w", m.Label(), err)
		}
		sums[m] = sum
	}
	return &MonthSection{
		Month:       m,
		Label:       m.Label(),
		FareSum:     sum,
		FareSumText: a.codec.FormatPrice(sum),
	}, nil
}

// Cursor walks the aggregated sequence one page at a time, keeping the
// previous month across pages. When the dataset generation changes the next
// call starts over from the first page.
type Cursor struct {
	agg     *SectionAggregator
	limit   int
	changes <-chan uint64
	cancel  func()

	next domain.PaginationParams
	prev *domain.Month
	sums map[domain.Month]int64
	done bool
}

// CursorPage is what one Cursor.Next call yields.
type CursorPage struct {
	Items []ListItem
	// Restarted is set on the first page after a dataset change; earlier
	// items the caller holds are stale.
	Restarted bool
}

// Open starts a cursor reading pages of limit trips. gen may be nil, in which
// case the cursor never restarts. Close releases the subscription.
func (a *SectionAggregator) Open(limit int, gen *Generation) *Cursor {
	_, changes, cancel := gen.Subscribe()
	c := &Cursor{agg: a, limit: limit, changes: changes, cancel: cancel}
	c.reset()
	return c
}

func (c *Cursor) reset() {
	c.next = domain.NewPaginationParams(nil, &c.limit)
	c.prev = nil
	c.sums = map[domain.Month]int64{}
	c.done = false
}

// Next fetches the next page. ok is false once the sequence is exhausted and
// no change has happened since.
func (c *Cursor) Next(ctx context.Context) (page CursorPage, ok bool, err error) {
	select {
	case _, open := <-c.changes:
		if open {
			c.reset()
			page.Restarted = true
		}
	default:
	}
	if c.done {
		return page, false, nil
	}

	trips, err := c.agg.src.Page(ctx, c.next)
	if err != nil {
		return CursorPage{}, false, fmt.Errorf("service.Cursor.Next: %w", err)
	}
	if len(trips) < c.next.Limit {
		c.done = true
	}
	if len(trips) == 0 {
		return page, page.Restarted, nil
	}

	items, prev, err := c.agg.annotate(ctx, trips, c.prev, c.sums)
	if err != nil {
		return CursorPage{}, false, fmt.Errorf("service.Cursor.Next: %w", err)
	}
	c.prev = prev
	c.next = c.next.Next()
	page.Items = items
	return page, true, nil
}

// Close stops watching for dataset changes.
func (c *Cursor) Close() {
	c.cancel()
}
