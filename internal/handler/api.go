package handler

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wire types for the JSON API. They mirror spec/openapi.yaml.

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Health is the GET /healthz body.
type Health struct {
	Status string `json:"status"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripRequest is the POST /trips and PUT /trips/{id} body. Money fields are
// user-entered decimal strings such as "12,50" or "3.8".
type TripRequest struct {
	StartCity       string             `json:"startCity"`
	EndCity         string             `json:"endCity"`
	Fare            string             `json:"fare"`
	AdditionalCosts *string            `json:"additionalCosts,omitempty"`
	Date            openapi_types.Date `json:"date"`
	DurationMinutes *int               `json:"durationMinutes,omitempty"`
	DelayMinutes    *int               `json:"delayMinutes,omitempty"`
	DistanceKm      *float64           `json:"distanceKm,omitempty"`
	Types           []string           `json:"types,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

// Trip is a stored trip. Money fields are minor units with a formatted twin.
type Trip struct {
	Id                  int64              `json:"id"`
	StartCity           string             `json:"startCity"`
	EndCity             string             `json:"endCity"`
	Fare                int64              `json:"fare"`
	FareText            string             `json:"fareText"`
	AdditionalCosts     *int64             `json:"additionalCosts,omitempty"`
	AdditionalCostsText *string            `json:"additionalCostsText,omitempty"`
	Date                openapi_types.Date `json:"date"`
	DurationMinutes     *int               `json:"durationMinutes,omitempty"`
	DelayMinutes        *int               `json:"delayMinutes,omitempty"`
	DistanceKm          *float64           `json:"distanceKm,omitempty"`
	Types               []string           `json:"types,omitempty"`
	Notes               *string            `json:"notes,omitempty"`
	CreatedTimestamp    int64              `json:"createdTimestamp"`
}

// TripList is the GET /trips body.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// MonthSection heads one calendar month in the feed.
type MonthSection struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Label       string `json:"label"`
	FareSum     int64  `json:"fareSum"`
	FareSumText string `json:"fareSumText"`
}

// FeedItem is a section header or a trip entry.
type FeedItem struct {
	Kind    string        `json:"kind"`
	Section *MonthSection `json:"section,omitempty"`
	Trip    *Trip         `json:"trip,omitempty"`
}

// FeedPage is the GET /trips/feed body.
type FeedPage struct {
	Items []FeedItem `json:"items"`
	Empty bool       `json:"empty"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// TicketRequest is the POST /tickets and PUT /tickets/{id} body.
type TicketRequest struct {
	Name      string             `json:"name"`
	Price     string             `json:"price"`
	Deduction *string            `json:"deduction,omitempty"`
	StartDate openapi_types.Date `json:"startDate"`
	EndDate   openapi_types.Date `json:"endDate"`
}

// Ticket is a stored ticket.
type Ticket struct {
	Id               int64              `json:"id"`
	Name             string             `json:"name"`
	Price            int64              `json:"price"`
	PriceText        string             `json:"priceText"`
	Deduction        *int64             `json:"deduction,omitempty"`
	DeductionText    *string            `json:"deductionText,omitempty"`
	StartDate        openapi_types.Date `json:"startDate"`
	EndDate          openapi_types.Date `json:"endDate"`
	CreatedTimestamp int64              `json:"createdTimestamp"`
}

// OverlapWarning names the ticket a saved ticket overlaps.
type OverlapWarning struct {
	ConflictingTicketId int64  `json:"conflictingTicketId"`
	Message             string `json:"message"`
}

// SavedTicket is returned by ticket writes.
type SavedTicket struct {
	Ticket
	Warning *OverlapWarning `json:"warning,omitempty"`
}

// TicketList is the GET /tickets body.
type TicketList struct {
	Data       []Ticket   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TicketProgress is the body of the progress endpoints.
type TicketProgress struct {
	Ticket      Ticket  `json:"ticket"`
	Fraction    float64 `json:"fraction"`
	Percent     string  `json:"percent"`
	ProgressSum int64   `json:"progressSum"`
	Goal        int64   `json:"goal"`
	Remaining   int64   `json:"remaining"`
	Label       string  `json:"label"`
}

// Settings is the GET /settings body.
type Settings struct {
	EnabledOptionalTripFields  []string `json:"enabledOptionalTripFields"`
	IncludeDeductionInProgress bool     `json:"includeDeductionInProgress"`
	HighlightedTicketId        *int64   `json:"highlightedTicketId"`
}

// SettingsRequest is the PUT /settings body. Absent fields are left as they
// are; clearHighlightedTicket removes the highlight.
type SettingsRequest struct {
	EnabledOptionalTripFields  *[]string `json:"enabledOptionalTripFields,omitempty"`
	IncludeDeductionInProgress *bool     `json:"includeDeductionInProgress,omitempty"`
	HighlightedTicketId        *int64    `json:"highlightedTicketId,omitempty"`
	ClearHighlightedTicket     bool      `json:"clearHighlightedTicket,omitempty"`
}

// ImportResult is the POST /import body.
type ImportResult struct {
	Trips   int64 `json:"trips"`
	Tickets int64 `json:"tickets"`
}
