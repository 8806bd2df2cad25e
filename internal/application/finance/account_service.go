package finance

import (
	"context"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService manages cash and bank accounts. Balances only move through
// appended finance transactions.
type AccountService struct {
	scope uow.TransactionScope
}

// NewAccountService creates a new AccountService
func NewAccountService(scope uow.TransactionScope) *AccountService {
	return &AccountService{scope: scope}
}

// Get returns a finance account by ID
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*FinanceAccountResponse, error) {
	a, err := s.scope.Reader().FinanceAccounts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFinanceAccountResponse(a)
	return &resp, nil
}

// Create opens an account with a zero balance
func (s *AccountService) Create(ctx context.Context, actor shared.Actor, req CreateFinanceAccountRequest) (*FinanceAccountResponse, error) {
	if err := actor.Require(shared.CapFinanceAccount); err != nil {
		return nil, err
	}
	a, err := finance.NewFinanceAccount(req.Code, req.Name, finance.AccountType(req.Type))
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		exists, err := repos.FinanceAccounts().ExistsByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Finance account code already exists").
				WithDetails(map[string]any{"code": req.Code})
		}
		return repos.FinanceAccounts().Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("finance account created",
		zap.String("account_id", a.ID.String()),
		zap.String("code", a.Code),
	)
	resp := ToFinanceAccountResponse(a)
	return &resp, nil
}

// RecordExpense withdraws money; the balance must cover it
func (s *AccountService) RecordExpense(ctx context.Context, actor shared.Actor, id uuid.UUID, req RecordExpenseRequest) (*FinanceTransactionResponse, error) {
	if err := actor.Require(shared.CapFinanceAccount); err != nil {
		return nil, err
	}
	return s.post(ctx, id, "expense recorded", func(a *finance.FinanceAccount) (*finance.FinanceTransaction, error) {
		return a.Withdraw(req.Amount, finance.SourceExpense, nil, req.Notes, actor.IDPtr())
	})
}

// Adjust corrects the balance by a signed delta
func (s *AccountService) Adjust(ctx context.Context, actor shared.Actor, id uuid.UUID, req AdjustAccountRequest) (*FinanceTransactionResponse, error) {
	if err := actor.Require(shared.CapFinanceAccount); err != nil {
		return nil, err
	}
	if req.Delta.IsZero() {
		return nil, shared.NewValidationError("Adjustment delta must not be zero")
	}
	return s.post(ctx, id, "finance account adjusted", func(a *finance.FinanceAccount) (*finance.FinanceTransaction, error) {
		return a.Adjust(req.Delta, req.Reason, actor.IDPtr())
	})
}

func (s *AccountService) post(ctx context.Context, id uuid.UUID, msg string, fn func(*finance.FinanceAccount) (*finance.FinanceTransaction, error)) (*FinanceTransactionResponse, error) {
	var tx *finance.FinanceTransaction
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		a, err := repos.FinanceAccounts().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tx, err = fn(a); err != nil {
			return err
		}
		return repos.FinanceAccounts().Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("account_id", id.String()),
		zap.Int64("sequence", tx.Sequence),
		zap.String("direction", string(tx.Direction)),
		zap.String("amount", tx.Amount.String()),
		zap.String("balance_after", tx.BalanceAfter.String()),
	)
	resp := ToFinanceTransactionResponse(tx)
	return &resp, nil
}

// ListTransactions returns a page of the account's ledger
func (s *AccountService) ListTransactions(ctx context.Context, id uuid.UUID, filter TransactionListFilter) ([]FinanceTransactionResponse, int64, error) {
	if _, err := s.scope.Reader().FinanceAccounts().FindByID(ctx, id); err != nil {
		return nil, 0, err
	}
	txs, total, err := s.scope.Reader().FinanceTransactions().List(ctx, finance.TransactionFilter{
		AccountID: id,
		From:      filter.From,
		To:        filter.To,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]FinanceTransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, ToFinanceTransactionResponse(&txs[i]))
	}
	return out, total, nil
}

// Reconcile replays the account's ledger from zero and compares it with the
// stored balance. A divergence is reported, not repaired.
func (s *AccountService) Reconcile(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReconcileAccountResponse, error) {
	if err := actor.Require(shared.CapFinanceAccount); err != nil {
		return nil, err
	}
	var resp *ReconcileAccountResponse
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		a, err := repos.FinanceAccounts().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		txs, err := repos.FinanceTransactions().FindByAccount(ctx, a.ID)
		if err != nil {
			return err
		}
		resp = &ReconcileAccountResponse{AccountID: a.ID, Balance: a.Balance, Transactions: len(txs), OK: true}
		if err := finance.ReconcileAccount(a, txs); err != nil {
			if shared.ErrorCode(err) != shared.CodeInvariantViolation {
				return err
			}
			resp.OK = false
			resp.Error = err.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		logger.L(ctx).Error("finance account reconciliation failed",
			zap.String("account_id", id.String()),
			zap.String("error", resp.Error),
		)
	}
	return resp, nil
}
