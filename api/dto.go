/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers around lists and aggregates

MONEY:
  Requests accept amounts as JSON numbers or strings (decimal.Decimal
  unmarshals both). Responses always render amounts as two-decimal strings,
  e.g. "100.00", so clients never see binary floating point.

DATES:
  Requests accept "YYYY-MM-DD" or RFC 3339. Responses use RFC 3339 UTC.

VALIDATION:
  Validation is done in the domain packages, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Shared response helpers
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
	"github.com/warp/pocket-ledger/recurring"
)

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse acknowledges a deletion or logout.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// TotalsDTO is a signed aggregate across people.
type TotalsDTO struct {
	TheyOweMe  string `json:"they_owe_me"`
	IOweThem   string `json:"i_owe_them"`
	NetBalance string `json:"net_balance"`
}

func toTotalsDTO(t ledger.Totals) TotalsDTO {
	return TotalsDTO{
		TheyOweMe:  generic.FormatAmount(t.TheyOweMe),
		IOweThem:   generic.FormatAmount(t.IOweThem),
		NetBalance: generic.FormatAmount(t.Net()),
	}
}

// =============================================================================
// AUTH
// =============================================================================

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func toUserDTO(u *auth.User) *UserDTO {
	return &UserDTO{ID: string(u.ID), Username: u.Username}
}

type AuthRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type AuthResponse struct {
	User      *UserDTO `json:"user"`
	Message   string   `json:"message"`
	IsNewUser bool     `json:"is_new_user,omitempty"`
}

// SessionResponse carries a null user when nobody is logged in.
type SessionResponse struct {
	User *UserDTO `json:"user"`
}

// =============================================================================
// RECURRING EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Category      string  `json:"category"`
	Recurrence    string  `json:"recurrence"`
	PaymentMethod string  `json:"payment_method"`
	DueDay        *int    `json:"due_day"`
	DueMonth      *int    `json:"due_month"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
	IsActive      bool    `json:"is_active"`
	Notes         string  `json:"notes,omitempty"`
	URL           string  `json:"url,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toExpenseDTO(e recurring.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            string(e.ID),
		Name:          e.Name,
		Description:   e.Description,
		Amount:        generic.FormatAmount(e.Amount),
		Currency:      e.Currency,
		Category:      string(e.Category),
		Recurrence:    string(e.Recurrence),
		PaymentMethod: string(e.PaymentMethod),
		DueDay:        e.DueDay,
		DueMonth:      e.DueMonth,
		StartDate:     formatTime(e.StartDate),
		EndDate:       formatOptionalTime(e.EndDate),
		IsActive:      e.IsActive,
		Notes:         e.Notes,
		URL:           e.URL,
		CreatedAt:     formatTime(e.CreatedAt),
		UpdatedAt:     formatTime(e.UpdatedAt),
	}
}

func toExpenseDTOs(expenses []recurring.Expense) []ExpenseDTO {
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	return dtos
}

type ExpenseRequest struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	Category      string           `json:"category"`
	Recurrence    string           `json:"recurrence"`
	PaymentMethod string           `json:"payment_method"`
	DueDay        *int             `json:"due_day"`
	DueMonth      *int             `json:"due_month"`
	StartDate     string           `json:"start_date"`
	EndDate       *string          `json:"end_date"`
	IsActive      *bool            `json:"is_active"`
	Notes         string           `json:"notes"`
	URL           string           `json:"url"`
}

func (req ExpenseRequest) toInput() recurring.ExpenseInput {
	return recurring.ExpenseInput{
		Name:          req.Name,
		Description:   req.Description,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Category:      req.Category,
		Recurrence:    req.Recurrence,
		PaymentMethod: req.PaymentMethod,
		DueDay:        req.DueDay,
		DueMonth:      req.DueMonth,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      req.IsActive,
		Notes:         req.Notes,
		URL:           req.URL,
	}
}

type ExpenseGroupsDTO struct {
	Monthly []ExpenseDTO `json:"monthly"`
	Yearly  []ExpenseDTO `json:"yearly"`
}

type ExpenseTotalsDTO struct {
	Monthly          string `json:"monthly"`
	Yearly           string `json:"yearly"`
	YearlyAsMonthly  string `json:"yearly_as_monthly"`
	EffectiveMonthly string `json:"effective_monthly"`
}

func toExpenseTotalsDTO(t recurring.Totals) ExpenseTotalsDTO {
	return ExpenseTotalsDTO{
		Monthly:          generic.FormatAmount(t.Monthly),
		Yearly:           generic.FormatAmount(t.Yearly),
		YearlyAsMonthly:  generic.FormatAmount(t.YearlyAsMonthly),
		EffectiveMonthly: generic.FormatAmount(t.EffectiveMonthly()),
	}
}

type ExpenseListResponse struct {
	Expenses ExpenseGroupsDTO `json:"expenses"`
	Totals   ExpenseTotalsDTO `json:"totals"`
}

// =============================================================================
// PEOPLE + TRANSACTIONS
// =============================================================================

type PersonDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toPersonDTO(p ledger.Person) PersonDTO {
	return PersonDTO{
		ID:           string(p.ID),
		Name:         p.Name,
		Nickname:     p.Nickname,
		Email:        p.Email,
		Phone:        p.Phone,
		Relationship: p.Relationship,
		Notes:        p.Notes,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

type PersonRequest struct {
	Name         string `json:"name"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	Notes        string `json:"notes"`
}

func (req PersonRequest) toInput() ledger.PersonInput {
	return ledger.PersonInput(req)
}

// PersonSummaryDTO is one row of GET /api/people.
type PersonSummaryDTO struct {
	PersonDTO
	Balance          string `json:"balance"`
	BalanceDirection string `json:"balance_direction"`
	TransactionCount int    `json:"transaction_count"`
	OpenLoans        int    `json:"open_loans"`
}

type PeopleResponse struct {
	People []PersonSummaryDTO `json:"people"`
	Totals TotalsDTO          `json:"totals"`
}

// PersonDetailDTO is GET /api/people/{id}: the person with their ledger.
type PersonDetailDTO struct {
	PersonDTO
	Balance          string           `json:"balance"`
	BalanceDirection string           `json:"balance_direction"`
	Transactions     []TransactionDTO `json:"transactions"`
}

type TransactionDTO struct {
	ID          string `json:"id"`
	PersonID    string `json:"person_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Disregarded bool   `json:"disregarded"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          string(tx.ID),
		PersonID:    string(tx.PersonID),
		Type:        string(tx.Type),
		Amount:      generic.FormatAmount(tx.Amount),
		Date:        formatTime(tx.Date),
		Description: tx.Description,
		Disregarded: tx.Disregarded,
		CreatedAt:   formatTime(tx.CreatedAt),
	}
}

type TransactionRequest struct {
	Type        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}

type DisregardRequest struct {
	Disregarded *bool `json:"disregarded"`
}

// =============================================================================
// LOANS + PAYMENTS
// =============================================================================

type LoanDTO struct {
	ID                 string       `json:"id"`
	PersonID           string       `json:"person_id"`
	Person             *PersonDTO   `json:"person,omitempty"`
	Direction          string       `json:"direction"`
	Amount             string       `json:"amount"`
	Currency           string       `json:"currency"`
	Reason             string       `json:"reason"`
	TransactionDate    string       `json:"transaction_date"`
	ExpectedSettlement *string      `json:"expected_settlement"`
	Notes              string       `json:"notes,omitempty"`
	IsSettled          bool         `json:"is_settled"`
	TotalPaid          string       `json:"total_paid"`
	Remaining          string       `json:"remaining"`
	Payments           []PaymentDTO `json:"payments"`
	CreatedAt          string       `json:"created_at"`
	UpdatedAt          string       `json:"updated_at"`
}

func toLoanDTO(l ledger.Loan) LoanDTO {
	dto := LoanDTO{
		ID:                 string(l.ID),
		PersonID:           string(l.PersonID),
		Direction:          string(l.Direction),
		Amount:             generic.FormatAmount(l.Amount),
		Currency:           l.Currency,
		Reason:             l.Reason,
		TransactionDate:    formatTime(l.TransactionDate),
		ExpectedSettlement: formatOptionalTime(l.ExpectedSettlement),
		Notes:              l.Notes,
		IsSettled:          l.IsSettled(),
		TotalPaid:          generic.FormatAmount(l.TotalPaid()),
		Remaining:          generic.FormatAmount(l.Remaining()),
		Payments:           toPaymentDTOs(l.Payments),
		CreatedAt:          formatTime(l.CreatedAt),
		UpdatedAt:          formatTime(l.UpdatedAt),
	}
	if l.Person != nil {
		p := toPersonDTO(*l.Person)
		dto.Person = &p
	}
	return dto
}

// LoanRequest creates or replaces a loan. person_* fields create the
// counterparty inline when person_id is empty; they are ignored on update,
// as is any is_settled field.
type LoanRequest struct {
	PersonID           string           `json:"person_id"`
	PersonName         string           `json:"person_name"`
	PersonNickname     string           `json:"person_nickname"`
	PersonEmail        string           `json:"person_email"`
	PersonPhone        string           `json:"person_phone"`
	PersonRelationship string           `json:"person_relationship"`
	Direction          string           `json:"direction"`
	Amount             *decimal.Decimal `json:"amount"`
	Currency           string           `json:"currency"`
	Reason             string           `json:"reason"`
	TransactionDate    string           `json:"transaction_date"`
	ExpectedSettlement *string          `json:"expected_settlement"`
	Notes              string           `json:"notes"`
}

func (req LoanRequest) toInput() ledger.LoanInput {
	in := ledger.LoanInput{
		PersonID:           ledger.PersonID(req.PersonID),
		Direction:          req.Direction,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Reason:             req.Reason,
		TransactionDate:    req.TransactionDate,
		ExpectedSettlement: req.ExpectedSettlement,
		Notes:              req.Notes,
	}
	if req.PersonID == "" && req.PersonName != "" {
		in.NewPerson = &ledger.PersonInput{
			Name:         req.PersonName,
			Nickname:     req.PersonNickname,
			Email:        req.PersonEmail,
			Phone:        req.PersonPhone,
			Relationship: req.PersonRelationship,
		}
	}
	return in
}

type PaymentDTO struct {
	ID        string `json:"id"`
	LoanID    string `json:"loan_id"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at"`
	Method    string `json:"method,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toPaymentDTO(p ledger.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        string(p.ID),
		LoanID:    string(p.LoanID),
		Amount:    generic.FormatAmount(p.Amount),
		PaidAt:    formatTime(p.PaidAt),
		Method:    string(p.Method),
		Notes:     p.Notes,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

func toPaymentDTOs(payments []ledger.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

type PaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	PaidAt string           `json:"paid_at"`
	Method string           `json:"method"`
	Notes  string           `json:"notes"`
}

// PaymentResponse returns the new payment with the loan as re-read after it.
type PaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
	Loan    LoanDTO    `json:"loan"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

type UpcomingDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	DueDay        *int   `json:"due_day"`
	DueMonth      *int   `json:"due_month,omitempty"`
	PaymentMethod string `json:"payment_method"`
}

func toUpcomingDTOs(expenses []recurring.Expense) []UpcomingDTO {
	dtos := make([]UpcomingDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = UpcomingDTO{
			ID:            string(e.ID),
			Name:          e.Name,
			Amount:        generic.FormatAmount(e.Amount),
			DueDay:        e.DueDay,
			DueMonth:      e.DueMonth,
			PaymentMethod: string(e.PaymentMethod),
		}
	}
	return dtos
}

type DashboardResponse struct {
	Expenses struct {
		Monthly struct {
			Total string `json:"total"`
			Count int    `json:"count"`
		} `json:"monthly"`
		Yearly struct {
			Total     string `json:"total"`
			Count     int    `json:"count"`
			AsMonthly string `json:"as_monthly"`
		} `json:"yearly"`
		EffectiveMonthly string `json:"effective_monthly"`
		Upcoming         struct {
			Monthly []UpcomingDTO `json:"monthly"`
			Yearly  []UpcomingDTO `json:"yearly"`
		} `json:"upcoming"`
	} `json:"expenses"`

	Ledger struct {
		TotalsDTO
		PeopleWithBalance int `json:"people_with_balance"`
	} `json:"ledger"`

	Loans struct {
		TotalsDTO
		ActiveLoansCount      int `json:"active_loans_count"`
		PeopleWithActiveLoans int `json:"people_with_active_loans"`
	} `json:"loans"`
}
