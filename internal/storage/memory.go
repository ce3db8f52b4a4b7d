package storage

import (
	"context"
	"slices"
	"sync"

	"soldi/internal/core"
	"soldi/internal/rates"
)

// MemoryStore is a Store kept entirely in process memory. It backs tests
// and the default development backend, where losing state on restart is
// acceptable.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[int64]core.Account
	transactions map[int64]TransactionRecord
	rates        map[[2]string]rates.Rate
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[int64]core.Account),
		transactions: make(map[int64]TransactionRecord),
		rates:        make(map[[2]string]rates.Rate),
	}
}

func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &Snapshot{}
	for _, account := range s.accounts {
		snapshot.Accounts = append(snapshot.Accounts, account)
	}
	for _, record := range s.transactions {
		record.Components = slices.Clone(record.Components)
		record.Transaction.Tags = slices.Clone(record.Transaction.Tags)
		snapshot.Transactions = append(snapshot.Transactions, record)
	}
	for _, rate := range s.rates {
		snapshot.Rates = append(snapshot.Rates, rate)
	}

	slices.SortFunc(snapshot.Accounts, func(a, b core.Account) int { return int(a.ID - b.ID) })
	slices.SortFunc(snapshot.Transactions, func(a, b TransactionRecord) int {
		return int(a.Transaction.ID - b.Transaction.ID)
	})
	return snapshot, nil
}

func (s *MemoryStore) SaveAccount(_ context.Context, account core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	return nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, id int64, affected []TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	for _, record := range affected {
		s.storeRecord(record)
	}
	return nil
}

func (s *MemoryStore) SaveTransaction(_ context.Context, record TransactionRecord, touched []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeRecord(record)
	for _, account := range touched {
		s.accounts[account.ID] = account
	}
	return nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, id int64, touched []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	for _, account := range touched {
		s.accounts[account.ID] = account
	}
	return nil
}

func (s *MemoryStore) SaveRate(_ context.Context, rate rates.Rate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[[2]string{rate.From, rate.To}] = rate
	return nil
}

func (s *MemoryStore) DeleteRate(_ context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rates, [2]string{from, to})
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) storeRecord(record TransactionRecord) {
	record.Components = slices.Clone(record.Components)
	record.Transaction.Tags = slices.Clone(record.Transaction.Tags)
	s.transactions[record.Transaction.ID] = record
}

var _ Store = (*MemoryStore)(nil)
