package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cashledger/internal/usecase"
)

// NewRepositories wires every Postgres repository over one pool.
func NewRepositories(pool *pgxpool.Pool, idGen usecase.IDGenerator) usecase.Repositories {
	return usecase.Repositories{
		TxManager: NewTxManager(pool),
		Accounts:  NewAccountRepository(pool),
		Entries:   NewEntryRepository(pool),
		Transfers: NewTransferRepository(pool),
		Sequences: NewSequenceRepository(),
		Sales:     NewSaleRepository(pool),
		Outbox:    NewOutboxRepository(pool),
		Audit:     NewAuditRepository(pool),
		IDGen:     idGen,
	}
}
