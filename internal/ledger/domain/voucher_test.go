package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEntries(t *testing.T) {
	balanced := []VoucherEntry{
		{AccountID: 1, Direction: Debit, Amount: decimal.NewFromInt(50)},
		{AccountID: 2, Direction: Debit, Amount: decimal.NewFromInt(50)},
		{AccountID: 3, Direction: Credit, Amount: decimal.NewFromInt(100)},
	}
	assert.NoError(t, ValidateEntries(balanced))

	assert.ErrorIs(t, ValidateEntries(nil), ErrNoEntries)

	negative := []VoucherEntry{
		{AccountID: 1, Direction: Debit, Amount: decimal.NewFromInt(-5)},
		{AccountID: 2, Direction: Credit, Amount: decimal.NewFromInt(-5)},
	}
	assert.ErrorIs(t, ValidateEntries(negative), ErrInvalidEntry)

	badDirection := []VoucherEntry{
		{AccountID: 1, Direction: Direction("transfer"), Amount: decimal.NewFromInt(5)},
	}
	assert.ErrorIs(t, ValidateEntries(badDirection), ErrInvalidEntry)
}

func TestValidateEntriesUnbalancedCarriesTotals(t *testing.T) {
	err := ValidateEntries([]VoucherEntry{
		{AccountID: 1, Direction: Debit, Amount: decimal.NewFromInt(100)},
		{AccountID: 2, Direction: Credit, Amount: decimal.NewFromInt(90)},
	})
	require.Error(t, err)

	var unbalanced *UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.True(t, unbalanced.DebitTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, unbalanced.CreditTotal.Equal(decimal.NewFromInt(90)))
}

func TestFormatVoucherNumber(t *testing.T) {
	date := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260305-0007", FormatVoucherNumber(date, 7))
	assert.Equal(t, "20260305-1234", FormatVoucherNumber(date, 1234))
}
