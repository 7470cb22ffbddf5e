package usecase

import (
	"context"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/metrics"
	"github.com/AlenaMolokova/bazario/internal/models"
)

type BalanceStorage interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
}

type LedgerUseCase struct {
	storage BalanceStorage
}

func NewLedgerUseCase(storage BalanceStorage) *LedgerUseCase {
	return &LedgerUseCase{storage: storage}
}

func (u *LedgerUseCase) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := u.storage.GetUserByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.Coins, nil
}

// credit adds a positive amount to userID inside tx and returns the new balance.
func credit(ctx context.Context, tx models.LedgerTx, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.Validation("credit amount must be positive, got %d", amount)
	}
	balance, err := tx.AddCoins(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	metrics.AddCoins(metrics.CoinsCredited, amount)
	return balance, nil
}

// transfer moves amount from payer to payee inside tx and returns the payer's
// new balance. Rows are touched in ascending user id so two transfers never
// wait on each other in opposite order.
func transfer(ctx context.Context, tx models.LedgerTx, payer, payee, amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.Validation("transfer amount must not be negative, got %d", amount)
	}
	if amount == 0 || payer == payee {
		user, err := tx.GetUser(ctx, payer)
		if err != nil {
			return 0, err
		}
		if user.Coins < amount {
			return 0, fmt.Errorf("user %d has %d coins, needs %d: %w", payer, user.Coins, amount, apperrors.ErrInsufficientBalance)
		}
		return user.Coins, nil
	}

	var payerBalance int64
	debit := func() error {
		b, err := tx.AddCoins(ctx, payer, -amount)
		if err != nil {
			return err
		}
		payerBalance = b
		return nil
	}
	credit := func() error {
		_, err := tx.AddCoins(ctx, payee, amount)
		return err
	}

	steps := []func() error{debit, credit}
	if payee < payer {
		steps = []func() error{credit, debit}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return 0, err
		}
	}
	metrics.AddCoins(metrics.CoinsTransferred, amount)
	return payerBalance, nil
}
