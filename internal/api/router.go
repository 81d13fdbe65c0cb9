/**
 * @description
 * This file sets up the HTTP router for the savings service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies any necessary middleware, such as for identity and internal
 * authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SavingsRoutes creates and returns a new router for the savings service.
func SavingsRoutes(h *SavingsHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require an authenticated identity.
	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware)

		// Wallet and ledger endpoints
		r.Post("/wallet", h.CreateWalletHandler)
		r.Get("/wallet", h.GetWalletHandler)
		r.Post("/wallet/deposits", h.DepositHandler)
		r.Post("/wallet/withdrawals", h.WithdrawHandler)
		r.Get("/ledger", h.LedgerHistoryHandler)
		r.Get("/ledger/{entryID}", h.GetLedgerEntryHandler)

		// Savings plan endpoints
		r.Post("/plans", h.CreatePlanHandler)
		r.Get("/plans", h.ListPlansHandler)
		r.Get("/plans/{planID}", h.GetPlanHandler)
		r.Post("/plans/{planID}/pause", h.PausePlanHandler)
		r.Post("/plans/{planID}/resume", h.ResumePlanHandler)
		r.Post("/plans/{planID}/cancel", h.CancelPlanHandler)
		r.Post("/plans/{planID}/contribute", h.ContributeNowHandler)

		// Funding schedule endpoints
		r.Post("/funding-schedules", h.CreateFundingScheduleHandler)
		r.Get("/funding-schedules/{scheduleID}", h.GetFundingScheduleHandler)
		r.Post("/funding-schedules/{scheduleID}/pause", h.PauseFundingScheduleHandler)
		r.Post("/funding-schedules/{scheduleID}/reactivate", h.ReactivateFundingScheduleHandler)

		// Rotating group endpoints
		r.Post("/groups", h.CreateGroupHandler)
		r.Get("/groups", h.ListGroupsHandler)
		r.Get("/groups/{groupID}", h.GetGroupHandler)
		r.Post("/groups/join", h.JoinGroupHandler)
		r.Post("/groups/{groupID}/contributions", h.ContributeToGroupHandler)

		// Fee quoting
		r.Get("/fees/quote", h.FeeQuoteHandler)
	})

	// Internal endpoints for service-to-service calls and operators.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Post("/internal/jobs/allocation", h.InternalRunAllocationHandler)
		r.Post("/internal/jobs/funding", h.InternalRunFundingHandler)
	})

	return r
}
