package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// TransferService executes transfers.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
}

// TransactionReader serves participant-scoped reads.
type TransactionReader interface {
	ListForAccount(ctx context.Context, accountID int64, limit, offset int) (*usecase.AccountStatement, error)
	Get(ctx context.Context, accountID, transactionID int64) (*usecase.TransactionView, error)
	EventHistory(ctx context.Context, accountID, transactionID int64) ([]domain.EventRecord, error)
	LedgerEntries(ctx context.Context, transactionID int64) (*usecase.TransactionLedger, error)
}

// TransactionHandler handles the /transactions endpoints.
type TransactionHandler struct {
	transfers TransferService
	reader    TransactionReader
	logger    zerolog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transfers TransferService, reader TransactionReader, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{transfers: transfers, reader: reader, logger: logger}
}

// List returns the caller's balance and transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	statement, err := h.reader.ListForAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromUseCase(statement))
}

// Create transfers money from the caller to receiver_id.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txn, err := h.transfers.Transfer(r.Context(), input)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logger.Error().Err(err).Int64("sender_id", accountID).Msg("transfer failed")
		}
		writeDomainError(w, err)
		return
	}

	view, err := h.reader.Get(r.Context(), accountID, txn.ID)
	if err != nil {
		// committed already; answer without the counterparty name
		h.logger.Warn().Err(err).Int64("transaction_id", txn.ID).Msg("failed to load transaction view")
		view = &usecase.TransactionView{Transaction: txn, Direction: usecase.DirectionSent}
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromView(*view))
}

// Get returns one transaction the caller took part in.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	transactionID, ok := parseIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	view, err := h.reader.Get(r.Context(), accountID, transactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromView(*view))
}

// Events returns the ordered event log of a transaction the caller took part in.
func (h *TransactionHandler) Events(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	transactionID, ok := parseIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	events, err := h.reader.EventHistory(r.Context(), accountID, transactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if events == nil {
		events = []domain.EventRecord{}
	}

	writeJSON(w, http.StatusOK, dto.EventHistoryResponse{TransactionID: transactionID, Events: events})
}

// Ledger returns the balance and commission ledger rows of a transaction the caller took part in.
func (h *TransactionHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	transactionID, ok := parseIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	if _, err := h.reader.Get(r.Context(), accountID, transactionID); err != nil {
		writeDomainError(w, err)
		return
	}

	ledger, err := h.reader.LedgerEntries(r.Context(), transactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromUseCase(transactionID, ledger))
}
