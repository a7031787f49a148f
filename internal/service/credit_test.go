package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid-server/internal/model"
	"github.com/leadgrid/leadgrid-server/internal/testutil"
)

func TestLedger_CreateUser(t *testing.T) {
	users := new(MockUserStore)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "alice@acme.com" && u.Role == model.RoleUser && u.Credits == 10 && u.IsActive
	})).Return(model.User{ID: uuid.New(), Email: "alice@acme.com", Credits: 10}, nil)

	svc := NewLedger(users, new(MockRevealStore), testutil.MakeNoopLogger())
	user, err := svc.CreateUser(context.Background(), " Alice@ACME.com ", "Alice Lee", model.RoleUser, 10)

	require.NoError(t, err)
	assert.Equal(t, 10, user.Credits)
	users.AssertExpectations(t)
}

func TestLedger_AddCredits_AppendsLedgerEntry(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserStore)
	reveals := new(MockRevealStore)

	users.On("Credit", mock.Anything, userID, 25).Return(30, nil)
	reveals.On("AppendTransaction", mock.Anything, mock.MatchedBy(func(tx model.CreditTransaction) bool {
		return tx.UserID == userID && tx.Amount == 25 && tx.Type == model.TxPurchase
	})).Return(nil)

	svc := NewLedger(users, reveals, testutil.MakeNoopLogger())
	balance, err := svc.AddCredits(context.Background(), userID, 25, model.TxPurchase)

	require.NoError(t, err)
	assert.Equal(t, 30, balance)
	reveals.AssertExpectations(t)
}

func TestLedger_AddCredits_AuditFailureKeepsBalance(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserStore)
	reveals := new(MockRevealStore)

	users.On("Credit", mock.Anything, userID, 5).Return(15, nil)
	reveals.On("AppendTransaction", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	svc := NewLedger(users, reveals, testutil.MakeNoopLogger())
	balance, err := svc.AddCredits(context.Background(), userID, 5, model.TxAdminAdjustment)

	// The balance change stands even when the audit row cannot be written.
	require.NoError(t, err)
	assert.Equal(t, 15, balance)
}

func TestLedger_DebitIfSufficient_PassesThroughShortfall(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserStore)
	users.On("DebitIfSufficient", mock.Anything, userID, 3).
		Return(0, &model.InsufficientCreditsError{Required: 3, Available: 2})

	svc := NewLedger(users, new(MockRevealStore), testutil.MakeNoopLogger())
	_, err := svc.DebitIfSufficient(context.Background(), userID, 3)

	var insufficient *model.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)
}

func TestLedger_Transactions_DefaultLimit(t *testing.T) {
	userID := uuid.New()
	reveals := new(MockRevealStore)
	reveals.On("ListTransactions", mock.Anything, userID, 50).
		Return([]model.CreditTransaction{{UserID: userID, Amount: -1}}, nil)

	svc := NewLedger(new(MockUserStore), reveals, testutil.MakeNoopLogger())
	txs, err := svc.Transactions(context.Background(), userID, 0)

	require.NoError(t, err)
	require.Len(t, txs, 1)
	reveals.AssertExpectations(t)
}
