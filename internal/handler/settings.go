package handler

import (
	"net/http"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// GetSettings handles GET /settings.
func (s *Server) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, settingsToResponse(s.settings.Current()))
}

// UpdateSettings handles PUT /settings. Only the fields present in the body
// change.
func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body SettingsRequest
	if err := decodeBody(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	var fields []domain.OptionalTripField
	if body.EnabledOptionalTripFields != nil {
		fields = make([]domain.OptionalTripField, 0, len(*body.EnabledOptionalTripFields))
		for _, name := range *body.EnabledOptionalTripFields {
			f, err := domain.ParseOptionalTripField(name)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
				return
			}
			fields = append(fields, f)
		}
	}

	updated, err := s.settings.Update(r.Context(), func(cur domain.Settings) domain.Settings {
		if fields != nil {
			cur.EnabledOptionalTripFields = fields
		}
		if body.IncludeDeductionInProgress != nil {
			cur.IncludeDeductionInProgress = *body.IncludeDeductionInProgress
		}
		if body.HighlightedTicketId != nil {
			cur.HighlightedTicketID = body.HighlightedTicketId
		}
		if body.ClearHighlightedTicket {
			cur.HighlightedTicketID = nil
		}
		return cur
	})
	if err != nil {
		writeServiceError(w, r, err, "settings not found")
		return
	}
	writeJSON(w, http.StatusOK, settingsToResponse(updated))
}

func settingsToResponse(v domain.Settings) Settings {
	names := make([]string, len(v.EnabledOptionalTripFields))
	for i, f := range v.EnabledOptionalTripFields {
		names[i] = string(f)
	}
	return Settings{
		EnabledOptionalTripFields:  names,
		IncludeDeductionInProgress: v.IncludeDeductionInProgress,
		HighlightedTicketId:        v.HighlightedTicketID,
	}
}
