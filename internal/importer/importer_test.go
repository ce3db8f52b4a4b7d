package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"soldi/internal/log"
	"soldi/internal/services"
	"soldi/internal/storage"
)

func newTestService(t *testing.T) *services.LedgerService {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	svc := services.NewLedgerService(storage.NewMemoryStore(), nil, logger)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc
}

func newTestImporter(t *testing.T, svc *services.LedgerService) *Importer {
	t.Helper()
	return New(svc, log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}))
}

const sampleCSV = `date,kind,description,tags,account,currency,amount
2024-01-05,expense,Groceries,food;home,Cash,EUR,-12.50
2024-01-06,expense,Salary,,Checking,EUR,2500.00
2024-01-07,expense,Dinner,food,Cash,EUR,-30.00
`

func TestImportCreatesEntities(t *testing.T) {
	svc := newTestService(t)
	imp := newTestImporter(t, svc)

	result, err := imp.Import(context.Background(), "alice", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	// Cash appears twice but must be created once.
	if result.Accounts != 2 || result.Transactions != 3 || result.Components != 3 {
		t.Errorf("result = %+v, want 2 accounts, 3 transactions, 3 components", result)
	}

	accounts := svc.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}
	balances := map[string]int64{}
	for _, a := range accounts {
		balances[a.Name] = a.Balance
	}
	if balances["Cash"] != -4250 {
		t.Errorf("Cash balance = %d, want -4250", balances["Cash"])
	}
	if balances["Checking"] != 250000 {
		t.Errorf("Checking balance = %d, want 250000", balances["Checking"])
	}

	transactions := svc.Book().Transactions()
	if len(transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(transactions))
	}
	if transactions[0].Amount != -1250 {
		t.Errorf("first amount = %d, want -1250", transactions[0].Amount)
	}
	if got := transactions[0].Tags; len(got) != 2 || got[0] != "food" || got[1] != "home" {
		t.Errorf("first tags = %v, want [food home]", got)
	}
	if transactions[1].Tags != nil {
		t.Errorf("tagless row should import with no tags, got %v", transactions[1].Tags)
	}
}

func TestImportDeduplicatesExistingAccounts(t *testing.T) {
	svc := newTestService(t)
	imp := newTestImporter(t, svc)

	existing, err := svc.CreateAccount(context.Background(), "alice", "Cash", "EUR")
	if err != nil {
		t.Fatal(err)
	}

	result, err := imp.Import(context.Background(), "alice",
		strings.NewReader("date,kind,description,tags,account,currency,amount\n2024-01-05,expense,Coffee,,Cash,EUR,-3.00\n"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Accounts != 0 {
		t.Errorf("result.Accounts = %d, want 0 (reused existing)", result.Accounts)
	}

	account, ok := svc.Book().Account(existing.ID)
	if !ok || account.Balance != -300 {
		t.Errorf("existing account balance = %d, want -300", account.Balance)
	}
}

func TestImportFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		line int
	}{
		{"empty input", "", 1},
		{"missing header", "2024-01-05,expense,x,,Cash,EUR,-1.00\n", 1},
		{"bad date", "date,kind,description,tags,account,currency,amount\n05/01/2024,expense,x,,Cash,EUR,-1.00\n", 2},
		{"bad amount", "date,kind,description,tags,account,currency,amount\n2024-01-05,expense,x,,Cash,EUR,abc\n", 2},
		{"empty account", "date,kind,description,tags,account,currency,amount\n2024-01-05,expense,x,,,EUR,-1.00\n", 2},
		{"wrong column count", "date,kind,description,tags,account,currency,amount\n2024-01-05,expense,x\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			imp := newTestImporter(t, svc)

			_, err := imp.Import(context.Background(), "alice", strings.NewReader(tt.csv))
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("err = %v, want FormatError", err)
			}
			if formatErr.Line != tt.line {
				t.Errorf("line = %d, want %d", formatErr.Line, tt.line)
			}
		})
	}
}

func TestImportLogicalErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"unknown kind", "date,kind,description,tags,account,currency,amount\n2024-01-05,withdrawal,x,,Cash,EUR,-1.00\n"},
		{"bad currency", "date,kind,description,tags,account,currency,amount\n2024-01-05,expense,x,,Cash,EURO,-1.00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			imp := newTestImporter(t, svc)

			_, err := imp.Import(context.Background(), "alice", strings.NewReader(tt.csv))
			var logicalErr *LogicalError
			if !errors.As(err, &logicalErr) {
				t.Fatalf("err = %v, want LogicalError", err)
			}
			if logicalErr.Line != 2 {
				t.Errorf("line = %d, want 2", logicalErr.Line)
			}
		})
	}
}
