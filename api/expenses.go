package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pocket-ledger/recurring"
)

// =============================================================================
// RECURRING EXPENSE ENDPOINTS
// =============================================================================

// ListExpenses returns the expenses grouped by recurrence, with totals
// computed over exactly the listed set.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := recurring.Filter{ActiveOnly: r.URL.Query().Get("active") == "true"}
	if v := r.URL.Query().Get("recurrence"); v != "" {
		rec, err := recurring.ParseRecurrence(v)
		if err != nil {
			writeDomainError(w, r, err, "expense")
			return
		}
		filter.Recurrence = rec
	}

	summary, err := h.Planner.Overview(r.Context(), currentUser(r), filter)
	if err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}

	writeJSON(w, http.StatusOK, ExpenseListResponse{
		Expenses: ExpenseGroupsDTO{
			Monthly: toExpenseDTOs(summary.Monthly),
			Yearly:  toExpenseDTOs(summary.Yearly),
		},
		Totals: toExpenseTotalsDTO(summary.Totals),
	})
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.Planner.Create(r.Context(), currentUser(r), req.toInput())
	if err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseDTO(*e))
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id := recurring.ExpenseID(chi.URLParam(r, "id"))

	e, err := h.Planner.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}

	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := recurring.ExpenseID(chi.URLParam(r, "id"))

	var req ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.Planner.Update(r.Context(), currentUser(r), id, req.toInput())
	if err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}

	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := recurring.ExpenseID(chi.URLParam(r, "id"))

	if err := h.Planner.Delete(r.Context(), currentUser(r), id); err != nil {
		writeDomainError(w, r, err, "expense")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
