package usecase_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/testutils"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinRequestSubmit(t *testing.T) {
	f := newFixture(t, nil)

	req, err := f.coins.Submit(ctx, as(f.alice), 100, "proof_a.png")
	require.NoError(t, err)

	assert.Equal(t, f.alice.ID, req.UserID)
	assert.Equal(t, int64(100), req.Amount)
	assert.False(t, req.Reviewed)
	assert.Nil(t, req.Approved)
	assert.Equal(t, "proof_a.png", req.ProofReference)
	assert.Equal(t, int64(0), f.store.Balance(f.alice.ID), "submitting never changes a balance")

	sent := f.notices(f.admin.ID, constants.TitleNewCoinRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, fmt.Sprintf("User alice requested 100 coins. Request ID: %d", req.ID), sent[0].message)
}

func TestCoinRequestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		proof  string
		exists bool
	}{
		{name: "zero amount", amount: 0, proof: "proof_a.png", exists: true},
		{name: "negative amount", amount: -5, proof: "proof_a.png", exists: true},
		{name: "no proof", amount: 10, proof: "", exists: true},
		{name: "proof not stored", amount: 10, proof: "proof_missing.png", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutils.NewMemoryStore()
			alice := store.SeedUser(modelsUser("alice", false))
			files := new(testutils.MockFileStore)
			files.On("Exists", tt.proof).Return(tt.exists).Maybe()
			notifier := new(testutils.MockNotifier)

			uc := usecase.NewCoinRequestUseCase(store, store, files, usecase.NewDispatcher(store, notifier))
			_, err := uc.Submit(ctx, as(alice), tt.amount, tt.proof)

			assert.ErrorIs(t, err, apperrors.ErrValidation)
			reqs, _ := store.ListCoinRequests(ctx)
			assert.Empty(t, reqs)
			notifier.AssertNotCalled(t, "Notify")
		})
	}
}

func TestCoinRequestApprove(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.coins.Submit(ctx, as(f.alice), 150, "proof_a.png")
	require.NoError(t, err)

	reviewed, err := f.coins.Approve(ctx, as(f.admin), req.ID)
	require.NoError(t, err)

	assert.True(t, reviewed.Reviewed)
	require.NotNil(t, reviewed.Approved)
	assert.True(t, *reviewed.Approved)
	require.NotNil(t, reviewed.ReviewerID)
	assert.Equal(t, f.admin.ID, *reviewed.ReviewerID)
	assert.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, int64(150), f.store.Balance(f.alice.ID))

	stored, err := f.store.GetCoinRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reviewed)

	sent := f.notices(f.alice.ID, constants.TitleCoinRequestApproved)
	require.Len(t, sent, 1)
	assert.Equal(t, "Your request for 150 coins has been approved. New balance: 150", sent[0].message)
}

func TestCoinRequestReject(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.coins.Submit(ctx, as(f.alice), 150, "proof_a.png")
	require.NoError(t, err)

	reviewed, err := f.coins.Reject(ctx, as(f.admin), req.ID)
	require.NoError(t, err)

	assert.True(t, reviewed.Reviewed)
	require.NotNil(t, reviewed.Approved)
	assert.False(t, *reviewed.Approved)
	assert.Equal(t, int64(0), f.store.Balance(f.alice.ID))

	sent := f.notices(f.alice.ID, constants.TitleCoinRequestRejected)
	require.Len(t, sent, 1)
	assert.Equal(t, "Your request for 150 coins has been rejected.", sent[0].message)
}

func TestCoinRequestReviewedOnlyOnce(t *testing.T) {
	tests := []struct {
		name          string
		first, second bool
		wantBalance   int64
	}{
		{name: "approve then approve", first: true, second: true, wantBalance: 70},
		{name: "approve then reject", first: true, second: false, wantBalance: 70},
		{name: "reject then approve", first: false, second: true, wantBalance: 0},
		{name: "reject then reject", first: false, second: false, wantBalance: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req, err := f.coins.Submit(ctx, as(f.alice), 70, "proof_a.png")
			require.NoError(t, err)

			review := func(approve bool) error {
				if approve {
					_, err := f.coins.Approve(ctx, as(f.admin), req.ID)
					return err
				}
				_, err := f.coins.Reject(ctx, as(f.admin), req.ID)
				return err
			}

			require.NoError(t, review(tt.first))
			err = review(tt.second)
			assert.ErrorIs(t, err, apperrors.ErrAlreadyReviewed)
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

			assert.Equal(t, tt.wantBalance, f.store.Balance(f.alice.ID))
			stored, err := f.store.GetCoinRequest(ctx, req.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.Approved)
			assert.Equal(t, tt.first, *stored.Approved)
		})
	}
}

// MemoryStore serializes transactions and rejects writes to unlocked rows;
// row lock contention itself is covered by StorageTestSuite.TestConcurrentApproveCreditsOnce.
func TestCoinRequestConcurrentApprove(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.coins.Submit(ctx, as(f.alice), 40, "proof_a.png")
	require.NoError(t, err)

	const reviewers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		reviewed  int
	)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coins.Approve(ctx, as(f.admin), req.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrAlreadyReviewed):
				reviewed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, reviewers-1, reviewed)
	assert.Equal(t, int64(40), f.store.Balance(f.alice.ID))
}

func TestCoinRequestReviewErrors(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.coins.Submit(ctx, as(f.alice), 10, "proof_a.png")
	require.NoError(t, err)

	_, err = f.coins.Approve(ctx, as(f.alice), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.coins.Reject(ctx, as(f.bob), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.coins.Approve(ctx, as(f.admin), req.ID+1000)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stored, err := f.store.GetCoinRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reviewed)
	assert.Equal(t, int64(0), f.store.Balance(f.alice.ID))
}

func TestCoinRequestApproveRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.coins.Submit(ctx, as(f.alice), 90, "proof_a.png")
	require.NoError(t, err)

	f.store.BeforeCommit = func() error { return errors.New("connection reset") }
	_, err = f.coins.Approve(ctx, as(f.admin), req.ID)
	require.Error(t, err)
	f.store.BeforeCommit = nil

	stored, err := f.store.GetCoinRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reviewed)
	assert.Nil(t, stored.Approved)
	assert.Equal(t, int64(0), f.store.Balance(f.alice.ID))
	assert.Empty(t, f.notices(f.alice.ID, constants.TitleCoinRequestApproved))

	_, err = f.coins.Approve(ctx, as(f.admin), req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(90), f.store.Balance(f.alice.ID))
}

func TestCoinRequestNotificationFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, errors.New("sink down"))

	req, err := f.coins.Submit(ctx, as(f.alice), 25, "proof_a.png")
	require.NoError(t, err)

	_, err = f.coins.Approve(ctx, as(f.admin), req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), f.store.Balance(f.alice.ID))
}

func TestCoinRequestVisibility(t *testing.T) {
	f := newFixture(t, nil)
	aliceReq, err := f.coins.Submit(ctx, as(f.alice), 10, "proof_a.png")
	require.NoError(t, err)
	bobReq, err := f.coins.Submit(ctx, as(f.bob), 20, "proof_b.png")
	require.NoError(t, err)

	all, err := f.coins.List(ctx, as(f.admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.coins.List(ctx, as(f.alice))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, aliceReq.ID, own[0].ID)

	_, err = f.coins.Get(ctx, as(f.alice), bobReq.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	got, err := f.coins.Get(ctx, as(f.admin), bobReq.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Amount)

	ref, err := f.coins.ProofReference(ctx, as(f.bob), bobReq.ID)
	require.NoError(t, err)
	assert.Equal(t, "proof_b.png", ref)
}
