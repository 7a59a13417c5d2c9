package dto

import (
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrorResponse is the body of every non-2xx response.
// Errors is only set for 422 responses.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Balance   domain.Money `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// LoginResponse carries the bearer token for later requests.
type LoginResponse struct {
	User      *AccountResponse `json:"user"`
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	Message   string           `json:"message"`
}

// TransactionResource is a transaction as seen by one of its participants.
// Commission is only shown to the sender; the receiver's total is the amount.
type TransactionResource struct {
	ID           int64         `json:"id"`
	Type         string        `json:"type"`
	Amount       domain.Money  `json:"amount"`
	Commission   *domain.Money `json:"commission"`
	Total        domain.Money  `json:"total"`
	Counterparty *string       `json:"counterparty"`
	Description  *string       `json:"description"`
	Status       string        `json:"status"`
	Date         string        `json:"date"`
}

// TransactionFromView converts a participant view to a resource.
func TransactionFromView(v usecase.TransactionView) *TransactionResource {
	t := v.Transaction

	res := &TransactionResource{
		ID:          t.ID,
		Type:        string(v.Direction),
		Amount:      t.Amount,
		Total:       t.Amount,
		Description: t.Description,
		Status:      string(t.Status),
		Date:        t.CreatedAt.UTC().Format(time.RFC3339),
	}

	if v.Direction == usecase.DirectionSent {
		commission := t.CommissionFee
		res.Commission = &commission
		res.Total = t.TotalDebited
	}

	if v.Counterparty != nil {
		name := v.Counterparty.Name
		res.Counterparty = &name
	}

	return res
}

// TransactionsFromViews converts views to resources.
func TransactionsFromViews(views []usecase.TransactionView) []*TransactionResource {
	result := make([]*TransactionResource, len(views))
	for i, v := range views {
		result[i] = TransactionFromView(v)
	}
	return result
}

// TransactionListResponse is the body of GET /api/v1/transactions.
type TransactionListResponse struct {
	Balance      domain.Money           `json:"balance"`
	Transactions []*TransactionResource `json:"transactions"`
}

// StatementFromUseCase converts an account statement to a response.
func StatementFromUseCase(s *usecase.AccountStatement) *TransactionListResponse {
	return &TransactionListResponse{
		Balance:      s.Account.Balance,
		Transactions: TransactionsFromViews(s.Transactions),
	}
}

// EventHistoryResponse lists a transaction's events in order.
type EventHistoryResponse struct {
	TransactionID int64                `json:"transaction_id"`
	Events        []domain.EventRecord `json:"events"`
}

// LedgerEntryResponse is one balance ledger row.
type LedgerEntryResponse struct {
	ID            int64        `json:"id"`
	AccountID     int64        `json:"user_id"`
	Amount        string       `json:"amount"`
	BalanceBefore domain.Money `json:"balance_before"`
	BalanceAfter  domain.Money `json:"balance_after"`
	Type          string       `json:"type"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CommissionEntryResponse is the commission ledger row of a transaction.
type CommissionEntryResponse struct {
	Amount      domain.Money `json:"amount"`
	Status      string       `json:"status"`
	CollectedAt time.Time    `json:"collected_at"`
}

// TransactionLedgerResponse is the body of GET /api/v1/transactions/{id}/ledger.
type TransactionLedgerResponse struct {
	TransactionID int64                    `json:"transaction_id"`
	Entries       []*LedgerEntryResponse   `json:"entries"`
	Commission    *CommissionEntryResponse `json:"commission"`
}

// LedgerFromUseCase converts ledger rows to a response.
func LedgerFromUseCase(transactionID int64, l *usecase.TransactionLedger) *TransactionLedgerResponse {
	resp := &TransactionLedgerResponse{
		TransactionID: transactionID,
		Entries:       make([]*LedgerEntryResponse, len(l.Entries)),
	}

	for i, e := range l.Entries {
		resp.Entries[i] = &LedgerEntryResponse{
			ID:            e.ID,
			AccountID:     e.AccountID,
			Amount:        e.Amount.StringFixed(domain.MoneyScale),
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			Type:          string(e.Type),
			CreatedAt:     e.CreatedAt,
		}
	}

	if l.Commission != nil {
		resp.Commission = &CommissionEntryResponse{
			Amount:      l.Commission.Amount,
			Status:      string(l.Commission.Status),
			CollectedAt: l.Commission.CollectedAt,
		}
	}

	return resp
}

// ConsistencyResponse reports the ledger-wide consistency check.
type ConsistencyResponse struct {
	Status     string `json:"status"`
	Consistent bool   `json:"consistent"`
	Message    string `json:"message,omitempty"`
}

// DiscrepancyResponse is one account whose balance disagrees with its ledger.
type DiscrepancyResponse struct {
	AccountID         int64        `json:"user_id"`
	RecordedBalance   domain.Money `json:"recorded_balance"`
	CalculatedBalance domain.Money `json:"calculated_balance"`
	Difference        string       `json:"difference"`
}

// ReconciliationResponse is the body of GET /api/v1/ledger/reconciliation.
type ReconciliationResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	LedgerError        string                 `json:"ledger_error,omitempty"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a report to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]*DiscrepancyResponse, len(r.Discrepancies)),
		LedgerConsistent:   r.LedgerConsistent,
		LedgerError:        r.LedgerError,
		CheckedAt:          r.CheckedAt,
	}

	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference.StringFixed(domain.MoneyScale),
		}
	}

	return resp
}
