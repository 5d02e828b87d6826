package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// handleCreateAccount handles POST /accounts.
func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	initial, err := domain.ParseAmount(req.InitialBalance)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.ledger.Create(r.Context(), req.AccountID, initial); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/accounts/"+req.AccountID.String())
	h.writeJSON(w, r, http.StatusCreated, newAccountResponse(domain.Account{ID: req.AccountID, Balance: initial}))
}

// handleGetAccount handles GET /accounts/{id}.
func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathAccountID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	acct, err := h.ledger.Read(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newAccountResponse(acct))
}

// handleDeposit handles POST /accounts/{id}/deposit.
func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceChange(w, r, h.ledger.Deposit)
}

// handleWithdraw handles POST /accounts/{id}/withdraw.
func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceChange(w, r, h.ledger.Withdraw)
}

type balanceOp func(ctx context.Context, amount decimal.Decimal, id domain.AccountID) error

// handleBalanceChange applies op and answers with the balance read back
// afterwards. The read is a separate operation, so a concurrent writer may
// already have moved the balance again.
func (h *Handler) handleBalanceChange(w http.ResponseWriter, r *http.Request, op balanceOp) {
	id, err := pathAccountID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req AmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := op(r.Context(), amount, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	acct, err := h.ledger.Read(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newAccountResponse(acct))
}

// handleTransfer handles POST /transfers.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	receipt, err := h.ledger.Transfer(r.Context(), amount, req.FromAccountID, req.ToAccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, TransferResponse{
		TransactionID: receipt.TransactionID,
		FromAccountID: receipt.From,
		ToAccountID:   receipt.To,
		Amount:        receipt.Amount.String(),
		Message:       receipt.String(),
	})
}
