/**
 * @description
 * HTTP handlers for fee endpoints: quoting a fee before a transaction is
 * submitted, so clients can show the exact deduction up front.
 */

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

// FeeQuoteHandler computes the fee for a prospective transaction.
// Query parameters: type (deposit|withdrawal|transfer), amount (minor units),
// currency (defaults to USD).
func (h *SavingsHandlers) FeeQuoteHandler(w http.ResponseWriter, r *http.Request) {
	txType := domain.EntryType(strings.TrimSpace(r.URL.Query().Get("type")))
	switch txType {
	case domain.EntryDeposit, domain.EntryWithdrawal, domain.EntryTransfer, domain.EntrySavingsContribution:
	default:
		h.writeError(w, http.StatusBadRequest, "type must be one of deposit, withdrawal, transfer, savings-contribution")
		return
	}
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "a positive integer amount is required")
		return
	}
	currency := strings.TrimSpace(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "USD"
	}

	result, err := h.fees.CalculateFee(r.Context(), txType, currency, amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// InternalRunAllocationHandler triggers the daily allocation sweep. Guarded
// by the internal API key; used by external schedulers and operators.
func (h *SavingsHandlers) InternalRunAllocationHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.allocation.RunDailyAllocation(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Allocation run failed")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// InternalRunFundingHandler triggers the funding sweep.
func (h *SavingsHandlers) InternalRunFundingHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.funding.RunFundingCycle(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Funding run failed")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
