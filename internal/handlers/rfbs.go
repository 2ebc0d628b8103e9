package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rfbmarket/internal/catalog"
	"rfbmarket/internal/rfb"
	"rfbmarket/models"
)

type rfbListing struct {
	models.RFBRecord
	EffectiveStatus models.RFBStatus `json:"effectiveStatus"`
	DaysRemaining   int              `json:"daysRemaining"`
	DeadlineBand    rfb.Band         `json:"deadlineBand"`
}

func listingOf(record models.RFBRecord, now time.Time) rfbListing {
	days := rfb.DaysRemaining(record.BidDeadline, now)
	return rfbListing{
		RFBRecord:       record,
		EffectiveStatus: rfb.EffectiveStatus(record, now),
		DaysRemaining:   days,
		DeadlineBand:    rfb.DeadlineBand(days),
	}
}

// GetRFBsHandler lists the requests for bid matching the query filters.
// X-Total-Count carries the number of matches before limit and offset apply.
func (h *Handler) GetRFBsHandler(w http.ResponseWriter, r *http.Request) {
	criteria, err := rfb.CriteriaFromQuery(r.URL.Query())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	records, err := h.Store.ListRFBs(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	now := h.now()
	matched := rfb.Query(records, criteria, now)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(matched)))

	matched = page(matched, parsePaginationParams(r))
	out := make([]rfbListing, len(matched))
	for i, record := range matched {
		out[i] = listingOf(record, now)
	}
	writeJSON(w, http.StatusOK, out)
}

// createRFBRequest accepts deadlines either as plain dates or as RFC 3339 timestamps.
type createRFBRequest struct {
	models.RFBRecord
	BidDeadline string `json:"bidDeadline"`
	QADeadline  string `json:"qaDeadline"`
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// CreateRFBHandler handles POST /api/rfbs/new.
func (h *Handler) CreateRFBHandler(w http.ResponseWriter, r *http.Request) {
	var req createRFBRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	in := req.RFBRecord
	var err error
	if in.BidDeadline, err = parseDate(req.BidDeadline, now.Location()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid bidDeadline")
		return
	}
	if in.QADeadline, err = parseDate(req.QADeadline, now.Location()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid qaDeadline")
		return
	}

	record, err := rfb.NewRecord(in, now)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Store.CreateRFB(r.Context(), &record); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Log.Info().Str("rfb_id", record.ID).Str("project", record.ProjectName).Msg("rfb posted")
	writeJSON(w, http.StatusOK, listingOf(record, now))
}

// GetRFBHandler returns one request for bid by id.
func (h *Handler) GetRFBHandler(w http.ResponseWriter, r *http.Request) {
	record, err := h.Store.GetRFB(r.Context(), chi.URLParam(r, "rfbId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingOf(*record, h.now()))
}

// UpdateRFBStatusHandler closes an open request for bid. Closed records never reopen.
func (h *Handler) UpdateRFBStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := models.RFBStatus(r.URL.Query().Get("status"))
	if status == "" {
		writeError(w, http.StatusBadRequest, "missing status")
		return
	}

	id := chi.URLParam(r, "rfbId")
	record, err := h.Store.GetRFB(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := rfb.CheckTransition(record.Status, status); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Store.UpdateRFBStatus(r.Context(), id, status); err != nil {
		h.handleError(w, r, err)
		return
	}

	record.Status = status
	h.Log.Info().Str("rfb_id", id).Str("status", string(status)).Msg("rfb status changed")
	writeJSON(w, http.StatusOK, listingOf(*record, h.now()))
}

// GetRFPHandler renders the request for proposal as a PDF. Query parameters
// named after a category id override that category's owner comment.
func (h *Handler) GetRFPHandler(w http.ResponseWriter, r *http.Request) {
	record, err := h.Store.GetRFB(r.Context(), chi.URLParam(r, "rfbId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	overlay := catalog.NewOverlay()
	q := r.URL.Query()
	for _, id := range catalog.IDs() {
		if q.Has(id) {
			if err := overlay.SetOwnerComment(id, q.Get(id)); err != nil {
				h.handleError(w, r, err)
				return
			}
		}
	}

	pdf, err := h.RFP.Generate(*record, overlay.Specs())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeFile(w, "application/pdf", "rfp-"+record.ID+".pdf", pdf)
}

// GetCategoriesHandler returns the work categories and the compliance notice.
func (h *Handler) GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":       catalog.NewOverlay().Specs(),
		"complianceNotice": catalog.ComplianceNotice,
	})
}
