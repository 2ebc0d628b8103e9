package handlers

import "github.com/go-chi/chi/v5"

// Routes mounts every API endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.PingHandler)

	r.Get("/categories", h.GetCategoriesHandler)

	r.Route("/rfbs", func(r chi.Router) {
		r.Get("/", h.GetRFBsHandler)
		r.Post("/new", h.CreateRFBHandler)
		r.Get("/{rfbId}", h.GetRFBHandler)
		r.Put("/{rfbId}/status", h.UpdateRFBStatusHandler)
		r.Get("/{rfbId}/rfp", h.GetRFPHandler)
		r.Get("/{rfbId}/bids", h.GetBidsForRFBHandler)
		r.Post("/{rfbId}/shortlist", h.ShortlistBidsHandler)
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Post("/new", h.CreateProposalHandler)
		r.Get("/{proposalId}", h.GetProposalHandler)
		r.Put("/{proposalId}/contractor", h.SetContractorHandler)
		r.Put("/{proposalId}/categories/{categoryId}", h.SetCategoryCommentHandler)
		r.Post("/{proposalId}/next", h.NextStepHandler)
		r.Post("/{proposalId}/back", h.PreviousStepHandler)
		r.Post("/{proposalId}/items", h.AddItemHandler)
		r.Patch("/{proposalId}/items/{itemId}", h.UpdateItemHandler)
		r.Delete("/{proposalId}/items/{itemId}", h.DeleteItemHandler)
		r.Put("/{proposalId}/rates", h.SetRatesHandler)
		r.Post("/{proposalId}/submit", h.SubmitHandler)
		r.Post("/{proposalId}/otp/verify", h.VerifyOTPHandler)
		r.Post("/{proposalId}/otp/resend", h.ResendOTPHandler)
		r.Post("/{proposalId}/otp/cancel", h.CancelOTPHandler)
		r.Post("/{proposalId}/redeliver", h.RedeliverHandler)
		r.Get("/{proposalId}/pricing.xlsx", h.PricingWorkbookHandler)
	})
}
