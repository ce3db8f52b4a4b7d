package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"soldi/internal/core"
	"soldi/internal/rates"
)

// SQLiteRepository is the durable Store. Every mutation method runs inside
// one database transaction so a mirror write is all-or-nothing.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, currency, include_in_total, show_in_list, balance, version
		FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Owner, &a.Name, &a.Currency, &a.IncludeInTotal, &a.ShowInList, &a.Balance, &a.Version); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		snapshot.Accounts = append(snapshot.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	components := make(map[int64][]core.Component)
	componentRows, err := r.db.QueryContext(ctx, `
		SELECT id, transaction_id, account_id, raw_amount, version
		FROM components ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}
	defer componentRows.Close()
	for componentRows.Next() {
		var c core.Component
		if err := componentRows.Scan(&c.ID, &c.TransactionID, &c.AccountID, &c.RawAmount, &c.Version); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		components[c.TransactionID] = append(components[c.TransactionID], c)
	}
	if err := componentRows.Err(); err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}

	txRows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, kind, description, tags, tx_date, amount, version
		FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var t core.Transaction
		var tags, txDate string
		if err := txRows.Scan(&t.ID, &t.Owner, &t.Kind, &t.Description, &tags, &txDate, &t.Amount, &t.Version); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of transaction %d: %w", t.ID, err)
		}
		if t.Date, err = core.ParseDate(txDate); err != nil {
			return nil, fmt.Errorf("decode date of transaction %d: %w", t.ID, err)
		}
		snapshot.Transactions = append(snapshot.Transactions, TransactionRecord{
			Transaction: t,
			Components:  components[t.ID],
		})
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	rateRows, err := r.db.QueryContext(ctx, `
		SELECT from_currency, to_currency, rate FROM exchange_rates ORDER BY from_currency, to_currency`)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	defer rateRows.Close()
	for rateRows.Next() {
		var rate rates.Rate
		var text string
		if err := rateRows.Scan(&rate.From, &rate.To, &text); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		if rate.Rate, err = decimal.NewFromString(text); err != nil {
			return nil, fmt.Errorf("decode rate %s->%s: %w", rate.From, rate.To, err)
		}
		snapshot.Rates = append(snapshot.Rates, rate)
	}
	if err := rateRows.Err(); err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}

	return snapshot, nil
}

func (r *SQLiteRepository) SaveAccount(ctx context.Context, account core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return upsertAccount(ctx, tx, account)
	})
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64, affected []TransactionRecord) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("delete components of account %d: %w", id, err)
		}
		for _, record := range affected {
			if err := upsertRecord(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, record TransactionRecord, touched []core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertRecord(ctx, tx, record); err != nil {
			return err
		}
		for _, account := range touched {
			if err := upsertAccount(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64, touched []core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete components of transaction %d: %w", id, err)
		}
		for _, account := range touched {
			if err := upsertAccount(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveRate(ctx context.Context, rate rates.Rate) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exchange_rates (from_currency, to_currency, rate) VALUES (?, ?, ?)
			ON CONFLICT (from_currency, to_currency) DO UPDATE SET rate = excluded.rate`,
			rate.From, rate.To, rate.Rate.String())
		if err != nil {
			return fmt.Errorf("save rate %s->%s: %w", rate.From, rate.To, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteRate(ctx context.Context, from, to string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM exchange_rates WHERE from_currency = ? AND to_currency = ?`, from, to); err != nil {
			return fmt.Errorf("delete rate %s->%s: %w", from, to, err)
		}
		return nil
	})
}

func upsertAccount(ctx context.Context, tx *sql.Tx, account core.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, owner, name, currency, include_in_total, show_in_list, balance, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			currency = excluded.currency,
			include_in_total = excluded.include_in_total,
			show_in_list = excluded.show_in_list,
			balance = excluded.balance,
			version = excluded.version`,
		account.ID, account.Owner, account.Name, account.Currency,
		account.IncludeInTotal, account.ShowInList, account.Balance, account.Version)
	if err != nil {
		return fmt.Errorf("upsert account %d: %w", account.ID, err)
	}
	return nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, record TransactionRecord) error {
	t := record.Transaction
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags of transaction %d: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, owner, kind, description, tags, tx_date, amount, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			kind = excluded.kind,
			description = excluded.description,
			tags = excluded.tags,
			tx_date = excluded.tx_date,
			amount = excluded.amount,
			version = excluded.version`,
		t.ID, t.Owner, string(t.Kind), t.Description, string(tags), t.Date.String(), t.Amount, t.Version); err != nil {
		return fmt.Errorf("upsert transaction %d: %w", t.ID, err)
	}

	// The component set is replaced wholesale; components never exist apart
	// from their transaction.
	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE transaction_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clear components of transaction %d: %w", t.ID, err)
	}
	for _, c := range record.Components {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO components (id, transaction_id, account_id, raw_amount, version)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.TransactionID, c.AccountID, c.RawAmount, c.Version); err != nil {
			return fmt.Errorf("insert component %d: %w", c.ID, err)
		}
	}
	return nil
}

var _ Store = (*SQLiteRepository)(nil)
