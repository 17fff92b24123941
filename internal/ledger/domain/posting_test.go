package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedDelta(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		accountType AccountType
		direction   Direction
		want        int64
	}{
		{AccountTypeAsset, Debit, 100},
		{AccountTypeAsset, Credit, -100},
		{AccountTypeExpense, Debit, 100},
		{AccountTypeExpense, Credit, -100},
		{AccountTypeLiability, Debit, -100},
		{AccountTypeLiability, Credit, 100},
		{AccountTypeEquity, Debit, -100},
		{AccountTypeEquity, Credit, 100},
		{AccountTypeIncome, Debit, -100},
		{AccountTypeIncome, Credit, 100},
	}
	for _, tt := range tests {
		got, err := SignedDelta(tt.accountType, tt.direction, amount)
		require.NoError(t, err, "%s/%s", tt.accountType, tt.direction)
		assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "%s/%s: got %s want %d", tt.accountType, tt.direction, got, tt.want)
	}
}

func TestSignedDeltaRejectsUnknownType(t *testing.T) {
	_, err := SignedDelta(AccountType("crypto"), Debit, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidAccountType)

	_, err = SignedDelta(AccountTypeAsset, Direction("sideways"), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

// Apply followed by reverse must be the identity on every balance, for every
// account type and direction combination.
func TestApplyReverseIdentity(t *testing.T) {
	amount := decimal.RequireFromString("123.45")
	types := []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense}
	directions := []Direction{Debit, Credit}

	for _, at := range types {
		for _, d := range directions {
			entries := []VoucherEntry{{AccountID: 1, Direction: d, Amount: amount}}
			typeMap := map[int64]AccountType{1: at}

			apply, err := PostingDeltas(entries, typeMap)
			require.NoError(t, err)
			reverse, err := ReversalDeltas(entries, typeMap)
			require.NoError(t, err)

			balance := decimal.RequireFromString("1000.00")
			after := balance.Add(apply[0].Delta).Add(reverse[0].Delta)
			assert.True(t, after.Equal(balance), "%s/%s: %s != %s", at, d, after, balance)
		}
	}
}

// Scenario from the posting rule: paying down a liability from a bank account
// decreases both balances; unposting restores them.
func TestPostingScenarioBankAndPayable(t *testing.T) {
	bank := decimal.NewFromInt(1000)
	payable := decimal.Zero
	amount := decimal.NewFromInt(100)

	entries := []VoucherEntry{
		{AccountID: 1, Direction: Debit, Amount: amount},  // accounts payable
		{AccountID: 2, Direction: Credit, Amount: amount}, // bank
	}
	types := map[int64]AccountType{
		1: AccountTypeLiability,
		2: AccountTypeAsset,
	}

	apply, err := PostingDeltas(entries, types)
	require.NoError(t, err)
	payable = payable.Add(apply[0].Delta)
	bank = bank.Add(apply[1].Delta)

	assert.True(t, payable.Equal(decimal.NewFromInt(-100)), "payable after post: %s", payable)
	assert.True(t, bank.Equal(decimal.NewFromInt(900)), "bank after post: %s", bank)

	reverse, err := ReversalDeltas(entries, types)
	require.NoError(t, err)
	payable = payable.Add(reverse[0].Delta)
	bank = bank.Add(reverse[1].Delta)

	assert.True(t, payable.IsZero(), "payable after unpost: %s", payable)
	assert.True(t, bank.Equal(decimal.NewFromInt(1000)), "bank after unpost: %s", bank)
}

func TestPostingDeltasUnknownAccount(t *testing.T) {
	entries := []VoucherEntry{{AccountID: 7, Direction: Debit, Amount: decimal.NewFromInt(1)}}
	_, err := PostingDeltas(entries, map[int64]AccountType{})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMergeDeltas(t *testing.T) {
	merged := MergeDeltas([]AccountDelta{
		{AccountID: 1, Delta: decimal.NewFromInt(-40)},
		{AccountID: 2, Delta: decimal.NewFromInt(10)},
		{AccountID: 1, Delta: decimal.NewFromInt(-60)},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, int64(1), merged[0].AccountID)
	assert.True(t, merged[0].Delta.Equal(decimal.NewFromInt(-100)))
	assert.True(t, merged[1].Delta.Equal(decimal.NewFromInt(10)))
}
