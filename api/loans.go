package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pocket-ledger/ledger"
)

// =============================================================================
// LOAN ENDPOINTS
// =============================================================================

// ListLoans supports ?active=true (unsettled only), ?person_id= and
// ?direction=lent|borrowed.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.LoanFilter{PersonID: ledger.PersonID(q.Get("person_id"))}
	if v := q.Get("direction"); v != "" {
		dir, err := ledger.ParseLoanDirection(v)
		if err != nil {
			writeDomainError(w, r, err, "loan")
			return
		}
		filter.Direction = dir
	}

	loans, err := h.Book.Loans(r.Context(), currentUser(r), filter, q.Get("active") == "true")
	if err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLoan creates a loan against person_id, or against a person created
// in the same transaction from the person_* fields.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.Book.CreateLoan(r.Context(), currentUser(r), req.toInput())
	if err != nil {
		what := "loan"
		if req.PersonID != "" {
			what = "person"
		}
		writeDomainError(w, r, err, what)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanDTO(*l))
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id := ledger.LoanID(chi.URLParam(r, "id"))

	l, err := h.Book.Loan(r.Context(), currentUser(r), id)
	if err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	writeJSON(w, http.StatusOK, toLoanDTO(*l))
}

func (h *Handler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id := ledger.LoanID(chi.URLParam(r, "id"))

	var req LoanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.Book.UpdateLoan(r.Context(), currentUser(r), id, req.toInput())
	if err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	writeJSON(w, http.StatusOK, toLoanDTO(*l))
}

func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id := ledger.LoanID(chi.URLParam(r, "id"))

	if err := h.Book.DeleteLoan(r.Context(), currentUser(r), id); err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := ledger.LoanID(chi.URLParam(r, "id"))

	payments, err := h.Book.Payments(r.Context(), currentUser(r), id)
	if err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// RecordPayment answers with the payment and the loan re-read after it, so
// the client sees the new settlement state without a second request.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.LoanID(chi.URLParam(r, "id"))

	var req PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, l, err := h.Book.RecordPayment(r.Context(), currentUser(r), id, ledger.PaymentInput{
		Amount: req.Amount,
		PaidAt: req.PaidAt,
		Method: req.Method,
		Notes:  req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err, "loan")
		return
	}

	writeJSON(w, http.StatusCreated, PaymentResponse{
		Payment: toPaymentDTO(*p),
		Loan:    toLoanDTO(*l),
	})
}
