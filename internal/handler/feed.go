package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/fare-ledger/internal/service"
)

// GetFeed handles GET /trips/feed.
// Without ?q= it pages through all trips; with ?q= it searches. Month section
// headers are interleaved with the trips.
func (s *Server) GetFeed(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	query, err := searchQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	page, err := s.feed.Page(r.Context(), query, params)
	if err != nil {
		writeServiceError(w, r, err, "feed not found")
		return
	}
	writeJSON(w, http.StatusOK, FeedPage{
		Items: s.feedItems(page.Items),
		Empty: page.Empty,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

// StreamFeed handles GET /trips/feed/stream.
// It writes the whole feed as newline-delimited JSON items, fetching one page
// of ?limit= trips at a time. When the dataset changes mid-stream a
// {"kind":"restart"} line is written and the feed starts over.
func (s *Server) StreamFeed(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	query, err := searchQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	cursor := s.feed.Open(query, params.Limit)
	defer cursor.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)

	for {
		page, ok, err := cursor.Next(r.Context())
		if err != nil {
			// Headers are gone; the client sees a truncated stream.
			slog.ErrorContext(r.Context(), "feed stream failed", "error", err)
			return
		}
		if !ok {
			return
		}
		if page.Restarted {
			if err := enc.Encode(FeedItem{Kind: "restart"}); err != nil {
				return
			}
		}
		for _, item := range s.feedItems(page.Items) {
			if err := enc.Encode(item); err != nil {
				return
			}
		}
		_ = rc.Flush()
	}
}

// searchQuery binds the optional ?q= parameter. Absent means every trip.
func searchQuery(r *http.Request) (*string, error) {
	var q *string
	err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q)
	return q, err
}

func (s *Server) feedItems(items []service.ListItem) []FeedItem {
	out := make([]FeedItem, len(items))
	for i, it := range items {
		out[i] = FeedItem{Kind: string(it.Kind)}
		if it.Section != nil {
			out[i].Section = sectionToResponse(*it.Section)
		}
		if it.Trip != nil {
			trip := s.tripToResponse(*it.Trip)
			out[i].Trip = &trip
		}
	}
	return out
}

func sectionToResponse(m service.MonthSection) *MonthSection {
	return &MonthSection{
		Year:        m.Month.Year,
		Month:       int(m.Month.Month),
		Label:       m.Label,
		FareSum:     m.FareSum,
		FareSumText: m.FareSumText,
	}
}
