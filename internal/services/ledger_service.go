// Package services orchestrates ledger mutations across the in-memory Book,
// durable storage and the AMQP broker.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"soldi/internal/amqp"
	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
	"soldi/internal/rates"
	"soldi/internal/storage"
)

// LedgerService is the write path of the application. The Book is the
// authority; every committed Book mutation is mirrored into the Store so a
// restart reconstructs the same graph. Mirror failures are surfaced to the
// caller but never roll the Book back, RefreshAccountBalance and Cleanup
// exist to reconcile a store that fell behind.
type LedgerService struct {
	mu     sync.Mutex
	book   *ledger.Book
	rates  *rates.Table
	store  storage.Store
	broker *amqp.Client
	logger *log.Logger
}

func NewLedgerService(store storage.Store, broker *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		book:   ledger.NewBook(),
		rates:  rates.NewTable(),
		store:  store,
		broker: broker,
		logger: logger.WithComponent("ledger-service"),
	}
}

// Book exposes the entity graph for read paths (reports, handlers).
func (s *LedgerService) Book() *ledger.Book { return s.book }

// Accounts lists all accounts ordered by handle.
func (s *LedgerService) Accounts() []core.Account { return s.book.Accounts() }

// Rates exposes the exchange-rate table for read paths.
func (s *LedgerService) Rates() *rates.Table { return s.rates }

// Load seeds the Book and the rate table from the Store, then runs a Cleanup
// pass so externally corrupted data is healed before the first request. When
// the pass removed anything the repaired graph is written back.
func (s *LedgerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	transactions := make([]core.Transaction, 0, len(snapshot.Transactions))
	var components []core.Component
	for _, record := range snapshot.Transactions {
		transactions = append(transactions, record.Transaction)
		components = append(components, record.Components...)
	}
	s.book.Seed(snapshot.Accounts, transactions, components)

	for _, rate := range snapshot.Rates {
		if err := s.rates.Set(rate.From, rate.To, rate.Rate); err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid stored rate",
				"from", rate.From, "to", rate.To, log.FieldError, err)
		}
	}

	if report := s.book.Cleanup(); report.Changed() {
		s.logger.WarnContext(ctx, "Cleanup removed orphaned entities",
			"accounts", report.Accounts,
			"transactions", report.Transactions,
			"components", report.Components)
		if err := s.resyncLocked(ctx, snapshot); err != nil {
			return fmt.Errorf("resync after cleanup: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Ledger loaded",
		"accounts", len(snapshot.Accounts),
		"transactions", len(snapshot.Transactions),
		"rates", len(snapshot.Rates))
	return nil
}

// resyncLocked rewrites the whole post-cleanup graph and deletes entities
// that the cleanup dropped relative to the snapshot it was seeded from.
func (s *LedgerService) resyncLocked(ctx context.Context, snapshot *storage.Snapshot) error {
	liveAccounts := make(map[int64]struct{})
	for _, account := range s.book.Accounts() {
		liveAccounts[account.ID] = struct{}{}
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return err
		}
	}
	liveTransactions := make(map[int64]struct{})
	for _, transaction := range s.book.Transactions() {
		liveTransactions[transaction.ID] = struct{}{}
		record := storage.TransactionRecord{
			Transaction: transaction,
			Components:  s.book.ComponentsOf(transaction.ID),
		}
		if err := s.store.SaveTransaction(ctx, record, nil); err != nil {
			return err
		}
	}

	for _, account := range snapshot.Accounts {
		if _, ok := liveAccounts[account.ID]; !ok {
			if err := s.store.DeleteAccount(ctx, account.ID, nil); err != nil {
				return err
			}
		}
	}
	for _, record := range snapshot.Transactions {
		if _, ok := liveTransactions[record.Transaction.ID]; !ok {
			if err := s.store.DeleteTransaction(ctx, record.Transaction.ID, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, owner, name, currency string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.book.CreateAccount(owner, name, currency)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return core.Account{}, fmt.Errorf("persist account %d: %w", account.ID, err)
	}
	s.logger.InfoContext(ctx, "Account created",
		log.FieldAccountID, account.ID, log.FieldOwner, owner, log.FieldCurrency, account.Currency)
	return account, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id, expectedVersion int64, name, currency string, includeInTotal, showInList bool) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.book.UpdateAccount(id, expectedVersion, name, currency, includeInTotal, showInList)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return core.Account{}, fmt.Errorf("persist account %d: %w", id, err)
	}
	return account, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected, err := s.book.DeleteAccount(id)
	if err != nil {
		return err
	}
	records := make([]storage.TransactionRecord, 0, len(affected))
	for _, transaction := range affected {
		records = append(records, storage.TransactionRecord{
			Transaction: transaction,
			Components:  s.book.ComponentsOf(transaction.ID),
		})
	}
	if err := s.store.DeleteAccount(ctx, id, records); err != nil {
		return fmt.Errorf("persist account delete %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Account deleted",
		log.FieldAccountID, id, "affected_transactions", len(affected))
	return nil
}

func (s *LedgerService) RefreshAccountBalance(ctx context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.book.RefreshAccountBalance(id)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return core.Account{}, fmt.Errorf("persist account %d: %w", id, err)
	}
	return account, nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, kind core.TransactionKind, description string, tags []string, date core.Date) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, err := s.book.CreateTransaction(owner, kind, description, tags, date)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.mirrorTransactionLocked(ctx, transaction.ID, nil); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, transaction.ID, log.FieldOwner, owner, "kind", string(kind))
	return transaction, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id, expectedVersion int64, description string, tags []string, date core.Date) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, err := s.book.UpdateTransaction(id, expectedVersion, description, tags, date)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.mirrorTransactionLocked(ctx, id, nil); err != nil {
		return core.Transaction{}, err
	}
	return transaction, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched, err := s.book.DeleteTransaction(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id, touched); err != nil {
		return fmt.Errorf("persist transaction delete %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id, "touched_accounts", len(touched))
	return nil
}

func (s *LedgerService) AddComponent(ctx context.Context, transactionID, accountID, rawAmount int64) (core.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	component, err := s.book.AddComponent(transactionID, accountID, rawAmount)
	if err != nil {
		return core.Component{}, err
	}
	if err := s.mirrorTransactionLocked(ctx, transactionID, accountIDs(accountID)); err != nil {
		return core.Component{}, err
	}
	return component, nil
}

// RemoveComponent detaches and destroys a component. Removing an already
// removed component reports changed=false and persists nothing.
func (s *LedgerService) RemoveComponent(ctx context.Context, componentID int64) (core.Component, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, changed := s.book.RemoveComponent(componentID)
	if !changed {
		return core.Component{}, false, nil
	}
	if err := s.mirrorTransactionLocked(ctx, removed.TransactionID, accountIDs(removed.AccountID)); err != nil {
		return core.Component{}, true, err
	}
	return removed, true, nil
}

// UpdateComponentAmount rewrites a component amount. A stale handle is a
// silent no-op reported through changed=false.
func (s *LedgerService) UpdateComponentAmount(ctx context.Context, componentID, newRawAmount int64) (core.Component, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	component, changed := s.book.UpdateComponentAmount(componentID, newRawAmount)
	if !changed {
		return core.Component{}, false, nil
	}
	if err := s.mirrorTransactionLocked(ctx, component.TransactionID, accountIDs(component.AccountID)); err != nil {
		return core.Component{}, true, err
	}
	return component, true, nil
}

// UpdateComponentAccount moves a component between accounts, or detaches it
// with newAccountID zero.
func (s *LedgerService) UpdateComponentAccount(ctx context.Context, componentID, newAccountID int64) (core.Component, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, _ := s.book.Component(componentID)
	component, changed, err := s.book.UpdateComponentAccount(componentID, newAccountID)
	if err != nil || !changed {
		return component, changed, err
	}
	if err := s.mirrorTransactionLocked(ctx, component.TransactionID, accountIDs(previous.AccountID, newAccountID)); err != nil {
		return core.Component{}, true, err
	}
	return component, true, nil
}

func (s *LedgerService) SetRate(ctx context.Context, from, to string, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to = normalizeCurrency(from), normalizeCurrency(to)
	if err := s.rates.Set(from, to, rate); err != nil {
		return err
	}
	if err := s.store.SaveRate(ctx, rates.Rate{From: from, To: to, Rate: rate}); err != nil {
		return fmt.Errorf("persist rate %s->%s: %w", from, to, err)
	}
	return nil
}

func (s *LedgerService) DeleteRate(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to = normalizeCurrency(from), normalizeCurrency(to)
	s.rates.Delete(from, to)
	if err := s.store.DeleteRate(ctx, from, to); err != nil {
		return fmt.Errorf("persist rate delete %s->%s: %w", from, to, err)
	}
	return nil
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// EnqueueImport publishes a CSV import job for the worker. Without a broker
// the job is rejected so the caller can fall back to a synchronous import.
func (s *LedgerService) EnqueueImport(ctx context.Context, job *amqp.ImportJobMessage) error {
	if s.broker == nil {
		return fmt.Errorf("enqueue import job: %w", amqp.ErrNoBroker)
	}
	if err := s.broker.PublishImportJob(ctx, job); err != nil {
		return fmt.Errorf("enqueue import job: %w", err)
	}
	s.logger.InfoContext(ctx, "Import job enqueued",
		log.FieldImportJobID, job.JobID, log.FieldOwner, job.Owner)
	return nil
}

// mirrorTransactionLocked writes the current state of one transaction, its
// full component set and the given touched accounts in a single store write.
func (s *LedgerService) mirrorTransactionLocked(ctx context.Context, transactionID int64, touchedAccounts []int64) error {
	transaction, ok := s.book.Transaction(transactionID)
	if !ok {
		return fmt.Errorf("mirror transaction %d: %w", transactionID, core.ErrNotFound)
	}
	record := storage.TransactionRecord{
		Transaction: transaction,
		Components:  s.book.ComponentsOf(transactionID),
	}
	touched := make([]core.Account, 0, len(touchedAccounts))
	for _, accountID := range touchedAccounts {
		if account, ok := s.book.Account(accountID); ok {
			touched = append(touched, account)
		}
	}
	if err := s.store.SaveTransaction(ctx, record, touched); err != nil {
		return fmt.Errorf("persist transaction %d: %w", transactionID, err)
	}
	return nil
}

// accountIDs filters out the zero (unassigned) handle.
func accountIDs(ids ...int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// Close releases the store and broker connections.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
