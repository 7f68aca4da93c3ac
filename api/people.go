package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
)

// =============================================================================
// PEOPLE ENDPOINTS
// =============================================================================

// ListPeople returns every person with their balance, largest debts first.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Book.People(r.Context(), currentUser(r))
	if err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	people := make([]PersonSummaryDTO, len(overview.People))
	for i, p := range overview.People {
		people[i] = PersonSummaryDTO{
			PersonDTO:        toPersonDTO(p.Person),
			Balance:          generic.FormatAmount(p.Balance),
			BalanceDirection: string(p.Direction()),
			TransactionCount: p.TransactionCount,
			OpenLoans:        p.OpenLoans,
		}
	}

	writeJSON(w, http.StatusOK, PeopleResponse{
		People: people,
		Totals: toTotalsDTO(overview.Totals),
	})
}

func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Book.CreatePerson(r.Context(), currentUser(r), req.toInput())
	if err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	writeJSON(w, http.StatusCreated, toPersonDTO(*p))
}

// GetPerson returns the person with their full ledger.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := ledger.PersonID(chi.URLParam(r, "id"))

	pl, err := h.Book.Person(r.Context(), currentUser(r), id)
	if err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	txs := make([]TransactionDTO, len(pl.Transactions))
	for i, tx := range pl.Transactions {
		txs[i] = toTransactionDTO(tx)
	}

	writeJSON(w, http.StatusOK, PersonDetailDTO{
		PersonDTO:        toPersonDTO(pl.Person),
		Balance:          generic.FormatAmount(pl.Balance),
		BalanceDirection: string(pl.Direction()),
		Transactions:     txs,
	})
}

func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := ledger.PersonID(chi.URLParam(r, "id"))

	var req PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Book.UpdatePerson(r.Context(), currentUser(r), id, req.toInput())
	if err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	writeJSON(w, http.StatusOK, toPersonDTO(*p))
}

// DeletePerson removes the person with their transactions, loans and
// payments.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id := ledger.PersonID(chi.URLParam(r, "id"))

	if err := h.Book.DeletePerson(r.Context(), currentUser(r), id); err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	personID := ledger.PersonID(chi.URLParam(r, "id"))

	var req TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.Book.RecordTransaction(r.Context(), currentUser(r), personID, ledger.TransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, r, err, "person")
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// SetDisregarded excludes a transaction from the balance, or brings it back.
func (h *Handler) SetDisregarded(w http.ResponseWriter, r *http.Request) {
	personID := ledger.PersonID(chi.URLParam(r, "id"))
	txID := ledger.TransactionID(chi.URLParam(r, "txId"))

	var req DisregardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Disregarded == nil {
		writeDomainError(w, r, generic.Invalid("disregarded", "is required"), "transaction")
		return
	}

	tx, err := h.Book.SetDisregarded(r.Context(), currentUser(r), personID, txID, *req.Disregarded)
	if err != nil {
		writeDomainError(w, r, err, "transaction")
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}
