package sheets

import (
	"context"
	"testing"
	"time"

	"soldi/internal/core"
	"soldi/internal/export"
)

func TestRows(t *testing.T) {
	doc := export.Document{
		ExportedAt: time.Now(),
		Transactions: []export.TransactionView{
			{
				Transaction: core.Transaction{
					ID:          1,
					Kind:        core.KindExpense,
					Description: "lunch",
					Tags:        []string{"food", "work"},
					Date:        core.MustParseDate("2024-02-17"),
					Amount:      -1550,
				},
			},
			{
				Transaction: core.Transaction{
					ID:     2,
					Kind:   core.KindTransfer,
					Date:   core.MustParseDate("2024-03-01"),
					Amount: 10000,
				},
			},
		},
	}

	rows := Rows(doc)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0]
	if first[0] != "2024-02-17" || first[1] != "expense" || first[2] != "lunch" {
		t.Errorf("first row = %v", first)
	}
	if first[3] != "food;work" {
		t.Errorf("tags cell = %v, want food;work", first[3])
	}
	if first[4] != -15.50 {
		t.Errorf("amount cell = %v, want -15.50", first[4])
	}

	second := rows[1]
	if second[1] != "transfer" || second[3] != "" || second[4] != 100.0 {
		t.Errorf("second row = %v", second)
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("NewFromEnv should fail without GOOGLE_SPREADSHEET_ID")
	}
}
