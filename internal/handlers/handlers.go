package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rfbmarket/db"
	"rfbmarket/internal/catalog"
	"rfbmarket/internal/document"
	"rfbmarket/internal/otp"
	"rfbmarket/internal/pricing"
	"rfbmarket/internal/rfb"
	"rfbmarket/internal/shortlist"
	"rfbmarket/internal/workflow"
	"rfbmarket/models"
)

const maxBodyBytes = 1048576

// ShortlistNotifier publishes the homeowner's shortlist decision.
type ShortlistNotifier interface {
	Notify(ctx context.Context, rfbID string, bids []models.Bid) error
}

// Handler serves the RFB listing, bids and proposal endpoints.
type Handler struct {
	Store     StorageInterface
	Proposals *workflow.Registry
	Notifier  ShortlistNotifier
	RFP       *document.RFPGenerator
	Workbook  *document.PricingWorkbook
	Log       zerolog.Logger
	Now       func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(store StorageInterface, proposals *workflow.Registry, notifier ShortlistNotifier, log zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Proposals: proposals,
		Notifier:  notifier,
		RFP:       document.NewRFPGenerator(),
		Workbook:  document.NewPricingWorkbook(),
		Log:       log,
		Now:       time.Now,
	}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON format")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, otp.ErrMalformedCode),
		errors.Is(err, rfb.ErrInvalidRecord),
		errors.Is(err, rfb.ErrInvalidCriteria),
		errors.Is(err, pricing.ErrDeleteLastItem),
		errors.Is(err, pricing.ErrReadOnlyField),
		errors.Is(err, pricing.ErrUnknownField),
		errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, shortlist.ErrNothingSelected),
		errors.Is(err, shortlist.ErrUnknownBid):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound),
		errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, pricing.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrWrongState),
		errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrRFBClosed),
		errors.Is(err, rfb.ErrInvalidTransition),
		errors.Is(err, rfb.ErrClosed),
		errors.Is(err, otp.ErrAlreadyVerified),
		errors.Is(err, otp.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, otp.ErrExpired):
		return http.StatusGone
	case errors.Is(err, otp.ErrMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
