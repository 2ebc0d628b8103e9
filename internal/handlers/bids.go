package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rfbmarket/internal/delivery"
	"rfbmarket/internal/shortlist"
)

// GetBidsForRFBHandler returns the received bids ranked from the lowest value.
func (h *Handler) GetBidsForRFBHandler(w http.ResponseWriter, r *http.Request) {
	rfbID := chi.URLParam(r, "rfbId")
	if _, err := h.Store.GetRFB(r.Context(), rfbID); err != nil {
		h.handleError(w, r, err)
		return
	}

	bids, err := h.Store.ListBidsForRFB(r.Context(), rfbID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shortlist.Review(bids))
}

type shortlistRequest struct {
	BidIDs []string `json:"bidIds"`
}

// ShortlistBidsHandler confirms the homeowner's selection and notifies the shortlisted bidders.
func (h *Handler) ShortlistBidsHandler(w http.ResponseWriter, r *http.Request) {
	var req shortlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rfbID := chi.URLParam(r, "rfbId")
	if _, err := h.Store.GetRFB(r.Context(), rfbID); err != nil {
		h.handleError(w, r, err)
		return
	}
	bids, err := h.Store.ListBidsForRFB(r.Context(), rfbID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	selected, err := shortlist.Confirm(bids, req.BidIDs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if h.Notifier != nil {
		if err := h.Notifier.Notify(r.Context(), rfbID, selected); err != nil {
			h.handleError(w, r, err)
			return
		}
	}

	h.Log.Info().Str("rfb_id", rfbID).Int("shortlisted", len(selected)).Msg("bids shortlisted")
	writeJSON(w, http.StatusOK, delivery.Shortlisted{RFBID: rfbID, Bids: selected})
}
