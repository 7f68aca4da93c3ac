/*
scenarios_test.go - End-to-end flows through the HTTP API

PURPOSE:
	Drives the router the way the frontend does, one user story per test:
	- A person ledger with lent/received events and a disregarded entry
	- A loan paid off in two installments
	- Recurring expenses feeding the list totals and the dashboard
	- Two users who must never see each other's data
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_PersonLedger(t *testing.T) {
	// GIVEN: Ana owes me from a 100.00 transfer, and paid 30.00 back
	// WHEN: Listing people and opening Ana's ledger
	// THEN: Her balance is 70.00 in my favour; disregarding the repayment
	//       restores 100.00

	ts := newTestServer(t)
	cookie := ts.login("me", "1234")

	rec := ts.do(http.MethodPost, "/api/people", PersonRequest{Name: "Ana", Email: "ana@example.com"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ana := decode[PersonDTO](t, rec)

	rec = ts.do(http.MethodPost, "/api/people", PersonRequest{Name: "Bruno"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	bruno := decode[PersonDTO](t, rec)

	post := func(personID, typ string, amount any, date string) TransactionDTO {
		t.Helper()
		rec := ts.do(http.MethodPost, "/api/people/"+personID+"/transactions", map[string]any{
			"type": typ, "amount": amount, "date": date,
		}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[TransactionDTO](t, rec)
	}

	post(ana.ID, "lent", 100, "2025-03-01")
	repayment := post(ana.ID, "received", "30.00", "2025-03-05")
	post(bruno.ID, "received", 20, "2025-03-02")

	rec = ts.do(http.MethodGet, "/api/people/"+ana.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[PersonDetailDTO](t, rec)
	assert.Equal(t, "70.00", detail.Balance)
	assert.Equal(t, "they_owe_me", detail.BalanceDirection)
	require.Len(t, detail.Transactions, 2)
	assert.Equal(t, repayment.ID, detail.Transactions[0].ID, "newest first")

	rec = ts.do(http.MethodGet, "/api/people", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	people := decode[PeopleResponse](t, rec)
	require.Len(t, people.People, 2)
	assert.Equal(t, "Ana", people.People[0].Name, "largest balance first")
	assert.Equal(t, "-20.00", people.People[1].Balance)
	assert.Equal(t, "i_owe_them", people.People[1].BalanceDirection)
	assert.Equal(t, TotalsDTO{TheyOweMe: "70.00", IOweThem: "20.00", NetBalance: "50.00"}, people.Totals)

	rec = ts.do(http.MethodPatch, "/api/people/"+ana.ID+"/transactions/"+repayment.ID,
		map[string]any{"disregarded": true}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[TransactionDTO](t, rec).Disregarded)

	rec = ts.do(http.MethodGet, "/api/people/"+ana.ID, nil, cookie)
	assert.Equal(t, "100.00", decode[PersonDetailDTO](t, rec).Balance)

	// Deleting a person takes the ledger along
	rec = ts.do(http.MethodDelete, "/api/people/"+ana.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/api/people", nil, cookie)
	assert.Equal(t, TotalsDTO{TheyOweMe: "0.00", IOweThem: "20.00", NetBalance: "-20.00"},
		decode[PeopleResponse](t, rec).Totals)
}

func TestScenario_LoanPaidInTwoInstallments(t *testing.T) {
	// GIVEN: A 200.00 loan to a person created inline
	// WHEN: 150.00 and then 50.00 are paid back
	// THEN: The loan settles exactly at the second payment and drops out
	//       of the active list

	ts := newTestServer(t)
	cookie := ts.login("me", "1234")

	rec := ts.do(http.MethodPost, "/api/loans", map[string]any{
		"person_name":      "Carla",
		"direction":        "lent",
		"amount":           200,
		"reason":           "Rent",
		"transaction_date": "2025-03-01",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loan := decode[LoanDTO](t, rec)
	require.NotNil(t, loan.Person)
	assert.Equal(t, "Carla", loan.Person.Name)
	assert.Equal(t, "BRL", loan.Currency)
	assert.Equal(t, "200.00", loan.Remaining)
	assert.Empty(t, loan.Payments)

	pay := func(amount any, date, method string) PaymentResponse {
		t.Helper()
		rec := ts.do(http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]any{
			"amount": amount, "paid_at": date, "method": method,
		}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[PaymentResponse](t, rec)
	}

	first := pay(150, "2025-03-10", "pix")
	assert.Equal(t, "150.00", first.Payment.Amount)
	assert.Equal(t, "150.00", first.Loan.TotalPaid)
	assert.Equal(t, "50.00", first.Loan.Remaining)
	assert.False(t, first.Loan.IsSettled)

	rec = ts.do(http.MethodGet, "/api/loans?active=true", nil, cookie)
	require.Len(t, decode[[]LoanDTO](t, rec), 1)

	second := pay("50.00", "2025-03-12", "")
	assert.True(t, second.Loan.IsSettled)
	assert.Equal(t, "0.00", second.Loan.Remaining)

	rec = ts.do(http.MethodGet, "/api/loans?active=true", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/loans/"+loan.ID+"/payments", nil, cookie)
	payments := decode[[]PaymentDTO](t, rec)
	require.Len(t, payments, 2)
	assert.Equal(t, second.Payment.ID, payments[0].ID, "newest first")

	rec = ts.do(http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]any{
		"amount": 10, "paid_at": "2025-03-13", "method": "cheque",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Loans do not move the transaction ledger
	rec = ts.do(http.MethodGet, "/api/people", nil, cookie)
	people := decode[PeopleResponse](t, rec)
	require.Len(t, people.People, 1)
	assert.Equal(t, "0.00", people.People[0].Balance)
	assert.Equal(t, 0, people.People[0].OpenLoans)

	rec = ts.do(http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[DashboardResponse](t, rec)
	assert.Equal(t, 0, dash.Loans.ActiveLoansCount)
	assert.Equal(t, "0.00", dash.Loans.NetBalance)
}

func TestScenario_RecurringExpenses(t *testing.T) {
	// GIVEN: Today is 2025-03-20, with two active monthly bills, one
	//        inactive monthly bill and two yearly bills
	// WHEN: Listing expenses and loading the dashboard
	// THEN: Totals cover exactly the listed set, and the bill due on the
	//       25th plus the yearly bill due in March are upcoming

	ts := newTestServer(t)
	cookie := ts.login("me", "1234")

	create := func(body map[string]any) ExpenseDTO {
		t.Helper()
		body["start_date"] = "2025-01-01"
		body["payment_method"] = "pix"
		rec := ts.do(http.MethodPost, "/api/expenses", body, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[ExpenseDTO](t, rec)
	}

	netflix := create(map[string]any{"name": "Netflix", "amount": 39.90, "recurrence": "monthly", "due_day": 25, "category": "subscription"})
	gym := create(map[string]any{"name": "Gym", "amount": 100, "recurrence": "monthly", "due_day": 5})
	create(map[string]any{"name": "Old plan", "amount": 50, "recurrence": "monthly", "is_active": false})
	ipva := create(map[string]any{"name": "IPVA", "amount": "1200.00", "recurrence": "yearly", "due_month": 3, "due_day": 10})
	create(map[string]any{"name": "Domain", "amount": 60, "recurrence": "yearly", "due_month": 7})

	assert.Equal(t, "39.90", netflix.Amount)
	assert.Equal(t, "other", gym.Category, "category defaults to other")

	rec := ts.do(http.MethodGet, "/api/expenses?active=true", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ExpenseListResponse](t, rec)
	require.Len(t, list.Expenses.Monthly, 2)
	assert.Equal(t, gym.ID, list.Expenses.Monthly[0].ID, "ordered by due day")
	assert.Len(t, list.Expenses.Yearly, 2)
	assert.Equal(t, ExpenseTotalsDTO{
		Monthly:          "139.90",
		Yearly:           "1260.00",
		YearlyAsMonthly:  "105.00",
		EffectiveMonthly: "244.90",
	}, list.Totals)

	rec = ts.do(http.MethodGet, "/api/expenses", nil, cookie)
	list = decode[ExpenseListResponse](t, rec)
	assert.Len(t, list.Expenses.Monthly, 3)
	assert.Equal(t, "189.90", list.Totals.Monthly)

	rec = ts.do(http.MethodGet, "/api/expenses?recurrence=yearly", nil, cookie)
	list = decode[ExpenseListResponse](t, rec)
	assert.Empty(t, list.Expenses.Monthly)
	assert.Len(t, list.Expenses.Yearly, 2)

	rec = ts.do(http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[DashboardResponse](t, rec)
	assert.Equal(t, "139.90", dash.Expenses.Monthly.Total)
	assert.Equal(t, 2, dash.Expenses.Monthly.Count)
	assert.Equal(t, "105.00", dash.Expenses.Yearly.AsMonthly)
	assert.Equal(t, "244.90", dash.Expenses.EffectiveMonthly)
	require.Len(t, dash.Expenses.Upcoming.Monthly, 1)
	assert.Equal(t, netflix.ID, dash.Expenses.Upcoming.Monthly[0].ID)
	require.Len(t, dash.Expenses.Upcoming.Yearly, 1)
	assert.Equal(t, ipva.ID, dash.Expenses.Upcoming.Yearly[0].ID)

	// Replace and delete
	rec = ts.do(http.MethodPut, "/api/expenses/"+gym.ID, map[string]any{
		"name": "Gym", "amount": 120, "recurrence": "monthly", "due_day": 5,
		"start_date": "2025-01-01", "payment_method": "credit_card",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "120.00", decode[ExpenseDTO](t, rec).Amount)

	rec = ts.do(http.MethodDelete, "/api/expenses/"+gym.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/expenses/"+gym.ID, nil, cookie).Code)
}

func TestScenario_UsersAreIsolated(t *testing.T) {
	// GIVEN: Ana owns a person, a loan and an expense
	// WHEN: Bruno addresses them by id
	// THEN: Every request is a 404, and Ana's data is unchanged

	ts := newTestServer(t)
	ana := ts.login("ana", "1111")
	bruno := ts.login("bruno", "2222")

	rec := ts.do(http.MethodPost, "/api/loans", map[string]any{
		"person_name": "Dora", "direction": "borrowed", "amount": 80,
		"reason": "Groceries", "transaction_date": "2025-03-01",
	}, ana)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loan := decode[LoanDTO](t, rec)

	rec = ts.do(http.MethodPost, "/api/expenses", map[string]any{
		"name": "Spotify", "amount": 21.90, "recurrence": "monthly",
		"start_date": "2025-01-01", "payment_method": "credit_card",
	}, ana)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expense := decode[ExpenseDTO](t, rec)

	probes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/people/" + loan.PersonID, nil},
		{http.MethodPut, "/api/people/" + loan.PersonID, PersonRequest{Name: "Hijacked"}},
		{http.MethodDelete, "/api/people/" + loan.PersonID, nil},
		{http.MethodPost, "/api/people/" + loan.PersonID + "/transactions", map[string]any{
			"type": "lent", "amount": 5, "date": "2025-03-02",
		}},
		{http.MethodGet, "/api/loans/" + loan.ID, nil},
		{http.MethodPut, "/api/loans/" + loan.ID, map[string]any{
			"direction": "lent", "amount": 1, "reason": "x", "transaction_date": "2025-03-01",
		}},
		{http.MethodDelete, "/api/loans/" + loan.ID, nil},
		{http.MethodPost, "/api/loans/" + loan.ID + "/payments", map[string]any{
			"amount": 80, "paid_at": "2025-03-02",
		}},
		{http.MethodPost, "/api/loans", map[string]any{
			"person_id": loan.PersonID, "direction": "lent", "amount": 1,
			"reason": "x", "transaction_date": "2025-03-01",
		}},
		{http.MethodGet, "/api/expenses/" + expense.ID, nil},
		{http.MethodDelete, "/api/expenses/" + expense.ID, nil},
	}
	for _, p := range probes {
		rec := ts.do(p.method, p.path, p.body, bruno)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s: %s", p.method, p.path, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/people", nil, bruno)
	assert.Empty(t, decode[PeopleResponse](t, rec).People)
	rec = ts.do(http.MethodGet, "/api/loans", nil, bruno)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/loans/"+loan.ID, nil, ana)
	require.Equal(t, http.StatusOK, rec.Code)
	still := decode[LoanDTO](t, rec)
	assert.Equal(t, "Dora", still.Person.Name)
	assert.Equal(t, "80.00", still.Remaining)

	rec = ts.do(http.MethodGet, "/api/dashboard", nil, ana)
	dash := decode[DashboardResponse](t, rec)
	assert.Equal(t, "80.00", dash.Loans.IOweThem)
	assert.Equal(t, 1, dash.Loans.PeopleWithActiveLoans)
	assert.Equal(t, "21.90", dash.Expenses.Monthly.Total)
}
