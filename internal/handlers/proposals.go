package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rfbmarket/internal/pricing"
	"rfbmarket/internal/workflow"
	"rfbmarket/models"
)

type pricingView struct {
	LineItems []models.LineItem      `json:"lineItems"`
	Summary   models.PricingSummary  `json:"summary"`
	Display   pricing.DisplaySummary `json:"display"`
}

type itemView struct {
	Item models.LineItem `json:"item"`
	pricingView
}

type submissionView struct {
	Proposal  models.ContractorProposal `json:"proposal"`
	Delivered bool                      `json:"delivered"`
	Error     string                    `json:"error,omitempty"`
}

func pricingOf(p *workflow.Proposal) pricingView {
	items, summary := p.Items()
	return pricingView{LineItems: items, Summary: summary, Display: pricing.Display(summary)}
}

func (h *Handler) proposal(w http.ResponseWriter, r *http.Request) (*workflow.Proposal, bool) {
	p, err := h.Proposals.Get(chi.URLParam(r, "proposalId"))
	if err != nil {
		h.handleError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, r *http.Request, p *workflow.Proposal) {
	snap, err := p.Snapshot(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CreateProposalHandler opens a contractor proposal against an open request for bid.
func (h *Handler) CreateProposalHandler(w http.ResponseWriter, r *http.Request) {
	rfbID := r.URL.Query().Get("rfbId")
	if rfbID == "" {
		writeError(w, http.StatusBadRequest, "missing rfbId")
		return
	}
	record, err := h.Store.GetRFB(r.Context(), rfbID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	p, err := h.Proposals.Open(*record)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

// GetProposalHandler returns the proposal snapshot, with the passcode countdown while one is pending.
func (h *Handler) GetProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, r, p)
}

// SetContractorHandler replaces the contractor identity on a Step1 proposal.
func (h *Handler) SetContractorHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	var identity models.ContractorIdentity
	if err := decodeJSON(w, r, &identity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := p.SetContractor(identity); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// SetCategoryCommentHandler stores the contractor's response for one category.
func (h *Handler) SetCategoryCommentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := p.SetCategoryComment(chi.URLParam(r, "categoryId"), req.Comment); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

// NextStepHandler moves a proposal from contractor details to pricing.
func (h *Handler) NextStepHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	if err := p.Next(); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

// PreviousStepHandler returns a proposal from pricing to contractor details.
func (h *Handler) PreviousStepHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	if err := p.Back(); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

// AddItemHandler appends an empty line item.
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	item, err := p.AddItem()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView{Item: item, pricingView: pricingOf(p)})
}

type updateItemRequest struct {
	Field pricing.Field `json:"field"`
	Value string        `json:"value"`
}

// UpdateItemHandler edits one field of a line item. Numeric values arrive as
// text and are parsed the way the pricing sheet parses them.
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := p.UpdateItem(chi.URLParam(r, "itemId"), req.Field, req.Value)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView{Item: item, pricingView: pricingOf(p)})
}

// DeleteItemHandler removes a line item. The last remaining item cannot be removed.
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	if err := p.DeleteItem(chi.URLParam(r, "itemId")); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricingOf(p))
}

// amountText is a rate sent either as a JSON number or as text. Anything
// that does not read as an amount becomes 0.
type amountText float64

func (a *amountText) UnmarshalJSON(data []byte) error {
	raw := string(data)
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		raw = text
	}
	*a = amountText(pricing.ParseAmount(raw))
	return nil
}

type ratesRequest struct {
	CGST     amountText `json:"cgst"`
	SGST     amountText `json:"sgst"`
	Discount amountText `json:"discount"`
}

// SetRatesHandler replaces the CGST, SGST and discount percentages.
func (h *Handler) SetRatesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	var req ratesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rates := pricing.Rates{CGST: float64(req.CGST), SGST: float64(req.SGST), Discount: float64(req.Discount)}
	if _, err := p.SetRates(rates); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricingOf(p))
}

// SubmitHandler sends a passcode to the contractor and waits for verification.
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	view, err := p.RequestSubmission(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type verifyRequest struct {
	Code string `json:"code"`
}

// VerifyOTPHandler completes the submission. When the proposal is submitted
// but could not be delivered the response is 202 with delivered=false.
func (h *Handler) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submitted, err := p.VerifyOTP(r.Context(), req.Code)
	h.writeSubmission(w, r, submitted, err)
}

// RedeliverHandler retries delivery of an already submitted proposal.
func (h *Handler) RedeliverHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	submitted, err := p.Redeliver(r.Context())
	h.writeSubmission(w, r, submitted, err)
}

func (h *Handler) writeSubmission(w http.ResponseWriter, r *http.Request, submitted models.ContractorProposal, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submissionView{Proposal: submitted, Delivered: true})
	case errors.Is(err, workflow.ErrDeliveryFailed):
		writeJSON(w, http.StatusAccepted, submissionView{Proposal: submitted, Error: err.Error()})
	default:
		h.handleError(w, r, err)
	}
}

// ResendOTPHandler issues a fresh passcode with a full countdown.
func (h *Handler) ResendOTPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	view, err := p.ResendOTP(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CancelOTPHandler drops the pending passcode and returns the proposal to pricing.
func (h *Handler) CancelOTPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	if err := p.CancelOTP(r.Context()); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeSnapshot(w, r, p)
}

// PricingWorkbookHandler exports the current line items and summary as xlsx.
func (h *Handler) PricingWorkbookHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.proposal(w, r)
	if !ok {
		return
	}
	snap, err := p.Snapshot(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	data, err := h.Workbook.Generate(snap.RFB.ProjectName, snap.LineItems, snap.Summary)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "pricing-"+snap.ID+".xlsx", data)
}
