package api

import (
	"net/http"

	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/recurring"
)

// Dashboard combines the active expenses, the person ledger and the open
// loans of the acting user into one response.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	expenses, err := h.Planner.Overview(r.Context(), userID, recurring.Filter{ActiveOnly: true})
	if err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}
	summary, err := h.Book.Summary(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, "ledger")
		return
	}

	var resp DashboardResponse

	t := expenses.Totals
	resp.Expenses.Monthly.Total = generic.FormatAmount(t.Monthly)
	resp.Expenses.Monthly.Count = t.MonthlyCount
	resp.Expenses.Yearly.Total = generic.FormatAmount(t.Yearly)
	resp.Expenses.Yearly.Count = t.YearlyCount
	resp.Expenses.Yearly.AsMonthly = generic.FormatAmount(t.YearlyAsMonthly)
	resp.Expenses.EffectiveMonthly = generic.FormatAmount(t.EffectiveMonthly())
	resp.Expenses.Upcoming.Monthly = toUpcomingDTOs(expenses.UpcomingMonthly)
	resp.Expenses.Upcoming.Yearly = toUpcomingDTOs(expenses.UpcomingYearly)

	resp.Ledger.TotalsDTO = toTotalsDTO(summary.Ledger)
	resp.Ledger.PeopleWithBalance = summary.PeopleWithBalance

	resp.Loans.TotalsDTO = toTotalsDTO(summary.Loans)
	resp.Loans.ActiveLoansCount = summary.ActiveLoans
	resp.Loans.PeopleWithActiveLoans = summary.PeopleWithActiveLoans

	writeJSON(w, http.StatusOK, resp)
}
