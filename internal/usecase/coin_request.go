package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/metrics"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/sirupsen/logrus"
)

// ProofChecker reports whether an uploaded file reference can be retrieved.
type ProofChecker interface {
	Exists(ref string) bool
}

type CoinRequestUseCase struct {
	ledger   models.LedgerStorage
	requests models.CoinRequestStorage
	proofs   ProofChecker
	notify   *Dispatcher
	now      func() time.Time
}

func NewCoinRequestUseCase(ledger models.LedgerStorage, requests models.CoinRequestStorage, proofs ProofChecker, notify *Dispatcher) *CoinRequestUseCase {
	return &CoinRequestUseCase{
		ledger:   ledger,
		requests: requests,
		proofs:   proofs,
		notify:   notify,
		now:      time.Now,
	}
}

func requireAdmin(p models.Principal, action string) error {
	if !p.IsAdmin {
		return fmt.Errorf("%s requires admin: %w", action, apperrors.ErrForbidden)
	}
	return nil
}

// Submit records a pending request backed by a previously stored proof file.
func (uc *CoinRequestUseCase) Submit(ctx context.Context, p models.Principal, amount int64, proofRef string) (models.CoinRequest, error) {
	if amount <= 0 {
		return models.CoinRequest{}, apperrors.Validation("amount must be positive, got %d", amount)
	}
	if proofRef == "" || !uc.proofs.Exists(proofRef) {
		return models.CoinRequest{}, apperrors.Validation("proof of payment is missing")
	}

	var created models.CoinRequest
	err := uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		var err error
		created, err = tx.CreateCoinRequest(ctx, models.CoinRequest{
			UserID:         p.UserID,
			Amount:         amount,
			ProofReference: proofRef,
		})
		return err
	})
	if err != nil {
		return models.CoinRequest{}, fmt.Errorf("failed to create coin request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id": created.ID,
		"user_id":    p.UserID,
		"amount":     amount,
	}).Info("Coin request submitted")

	uc.notify.ToAdmins(ctx, constants.TitleNewCoinRequest,
		fmt.Sprintf("User %s requested %d coins. Request ID: %d", p.Username, amount, created.ID))
	return created, nil
}

func (uc *CoinRequestUseCase) Approve(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error) {
	return uc.review(ctx, p, id, true)
}

func (uc *CoinRequestUseCase) Reject(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error) {
	return uc.review(ctx, p, id, false)
}

// review settles a pending request exactly once. The row lock serializes
// concurrent reviewers so only the first sees reviewed=false.
func (uc *CoinRequestUseCase) review(ctx context.Context, p models.Principal, id int64, approve bool) (models.CoinRequest, error) {
	if err := requireAdmin(p, "reviewing coin requests"); err != nil {
		return models.CoinRequest{}, err
	}

	var (
		reviewed models.CoinRequest
		balance  int64
	)
	err := uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		req, err := tx.LockCoinRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Reviewed {
			return fmt.Errorf("coin request %d: %w", id, apperrors.ErrAlreadyReviewed)
		}

		now := uc.now()
		approved := approve
		reviewer := p.UserID
		req.Reviewed = true
		req.Approved = &approved
		req.ReviewedAt = &now
		req.ReviewerID = &reviewer
		if err := tx.SaveCoinRequestReview(ctx, req); err != nil {
			return err
		}

		if approve {
			if balance, err = credit(ctx, tx, req.UserID, req.Amount); err != nil {
				return err
			}
		}
		reviewed = req
		return nil
	})
	if err != nil {
		return models.CoinRequest{}, err
	}

	metrics.RecordCoinReview(approve)
	logrus.WithFields(logrus.Fields{
		"request_id":  id,
		"reviewer_id": p.UserID,
		"approved":    approve,
	}).Info("Coin request reviewed")

	if approve {
		uc.notify.ToUser(ctx, reviewed.UserID, constants.TitleCoinRequestApproved,
			fmt.Sprintf("Your request for %d coins has been approved. New balance: %d", reviewed.Amount, balance))
	} else {
		uc.notify.ToUser(ctx, reviewed.UserID, constants.TitleCoinRequestRejected,
			fmt.Sprintf("Your request for %d coins has been rejected.", reviewed.Amount))
	}
	return reviewed, nil
}

// List returns every request for admins and the caller's own otherwise.
func (uc *CoinRequestUseCase) List(ctx context.Context, p models.Principal) ([]models.CoinRequest, error) {
	if p.IsAdmin {
		return uc.requests.ListCoinRequests(ctx)
	}
	return uc.requests.ListCoinRequestsByUser(ctx, p.UserID)
}

func (uc *CoinRequestUseCase) Get(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error) {
	req, err := uc.requests.GetCoinRequest(ctx, id)
	if err != nil {
		return models.CoinRequest{}, err
	}
	if !p.IsAdmin && req.UserID != p.UserID {
		return models.CoinRequest{}, fmt.Errorf("coin request %d belongs to another user: %w", id, apperrors.ErrForbidden)
	}
	return req, nil
}

// ProofReference returns the stored proof file of a request the caller may see.
func (uc *CoinRequestUseCase) ProofReference(ctx context.Context, p models.Principal, id int64) (string, error) {
	req, err := uc.Get(ctx, p, id)
	if err != nil {
		return "", err
	}
	return req.ProofReference, nil
}
