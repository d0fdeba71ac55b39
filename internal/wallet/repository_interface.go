package wallet

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	AddTransaction(ctx context.Context, userID uuid.UUID, amountCents int64, txType string) error
	TopUp(ctx context.Context, userID uuid.UUID, amountCents int64) error
	GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
}
