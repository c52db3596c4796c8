package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "debit from empty account",
			balance:     decimal.Zero,
			debitAmount: decimal.RequireFromString("0.01"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError && !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("expected ErrInsufficientBalance, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_ValidateEntry(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(10)}

	if err := acc.ValidateEntry(EntryKindSaleCash, decimal.NewFromInt(1000)); err != nil {
		t.Errorf("inflow should never fail balance check: %v", err)
	}
	if err := acc.ValidateEntry(EntryKindExpense, decimal.NewFromInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := acc.ValidateEntry(EntryKindPurchase, decimal.NewFromInt(10)); err != nil {
		t.Errorf("outflow equal to balance should pass: %v", err)
	}
}

func TestAccount_ApplyEntry(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(100)}

	tests := []struct {
		kind     EntryKind
		amount   int64
		expected int64
	}{
		{EntryKindSaleCash, 50, 150},
		{EntryKindSaleCreditSettlement, 5, 105},
		{EntryKindTransferIn, 1, 101},
		{EntryKindExpense, 30, 70},
		{EntryKindPurchase, 100, 0},
		{EntryKindLaborPayment, 1, 99},
		{EntryKindTransferOut, 40, 60},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := acc.ApplyEntry(tt.kind, decimal.NewFromInt(tt.amount))
			if !got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("expected %d, got %s", tt.expected, got)
			}
		})
	}
}
