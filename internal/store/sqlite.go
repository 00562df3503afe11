// Package store provides storage backends for CardAssist.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/CardAssist/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the containing
// directory is created if it doesn't exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// AddAccount inserts or replaces an account record.
func (s *SQLiteStore) AddAccount(a models.Account) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO accounts
		(user_id, name, email, phone, card_number, card_status, credit_limit, available_credit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Email, a.Phone, a.CardNumber, string(a.CardStatus), a.CreditLimit, a.AvailableCredit, a.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddAccount failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert account %s: %w", a.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAccount(userID string) (*models.Account, error) {
	var a models.Account
	var status string
	err := s.db.QueryRow(`SELECT user_id, name, email, phone, card_number, card_status, credit_limit, available_credit, created_at
		FROM accounts WHERE user_id = ?`, userID).Scan(
		&a.UserID, &a.Name, &a.Email, &a.Phone, &a.CardNumber, &status, &a.CreditLimit, &a.AvailableCredit, &a.CreatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetAccount not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetAccount failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query account %s: %w", userID, err)
	}
	a.CardStatus = models.CardStatus(status)
	return &a, nil
}

func (s *SQLiteStore) UpdateCardStatus(userID string, status models.CardStatus) error {
	_, err := s.db.Exec(`UPDATE accounts SET card_status = ? WHERE user_id = ?`, string(status), userID)
	if err != nil {
		slog.Error("SQLiteStore UpdateCardStatus failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to update card status for %s: %w", userID, err)
	}
	slog.Debug("SQLiteStore UpdateCardStatus succeeded", "userID", userID, "status", status)
	return nil
}

func (s *SQLiteStore) UpdateAvailableCredit(userID string, available float64) error {
	_, err := s.db.Exec(`UPDATE accounts SET available_credit = ? WHERE user_id = ?`, available, userID)
	if err != nil {
		slog.Error("SQLiteStore UpdateAvailableCredit failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to update available credit for %s: %w", userID, err)
	}
	slog.Debug("SQLiteStore UpdateAvailableCredit succeeded", "userID", userID, "available", available)
	return nil
}

func (s *SQLiteStore) AddTransaction(t models.Transaction) error {
	_, err := s.db.Exec(`INSERT INTO transactions
		(transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransactionID, t.UserID, t.Amount, t.Merchant, t.Category, t.Date, string(t.Status), t.IsEMI,
		nilIfZeroInt(t.EMITenure), nilIfZeroFloat(t.EMIAmount))
	if err != nil {
		slog.Error("SQLiteStore AddTransaction failed", "error", err, "transactionID", t.TransactionID)
		return fmt.Errorf("failed to insert transaction %s: %w", t.TransactionID, err)
	}
	slog.Debug("SQLiteStore AddTransaction succeeded", "transactionID", t.TransactionID, "userID", t.UserID)
	return nil
}

func (s *SQLiteStore) ListTransactions(userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unlimited
	}
	rows, err := s.db.Query(`SELECT transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount
		FROM transactions WHERE user_id = ? ORDER BY date DESC LIMIT ?`, userID, limit)
	if err != nil {
		slog.Error("SQLiteStore ListTransactions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query transactions for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *SQLiteStore) ListEMITransactions(userID string) ([]models.Transaction, error) {
	rows, err := s.db.Query(`SELECT transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount
		FROM transactions WHERE user_id = ? AND is_emi = 1 ORDER BY date DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListEMITransactions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query EMI transactions for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// AddBill inserts a bill record.
func (s *SQLiteStore) AddBill(b models.Bill) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO bills
		(bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BillID, b.UserID, b.BillDate, b.DueDate, b.TotalAmount, b.MinimumDue, b.PaidAmount, string(b.Status), nilIfEmpty(b.StatementURL))
	if err != nil {
		slog.Error("SQLiteStore AddBill failed", "error", err, "billID", b.BillID)
		return fmt.Errorf("failed to insert bill %s: %w", b.BillID, err)
	}
	return nil
}

func (s *SQLiteStore) GetLatestBill(userID string) (*models.Bill, error) {
	row := s.db.QueryRow(`SELECT bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url
		FROM bills WHERE user_id = ? ORDER BY bill_date DESC LIMIT 1`, userID)
	return scanBillRow(row, userID)
}

func (s *SQLiteStore) GetOverdueBill(userID string) (*models.Bill, error) {
	row := s.db.QueryRow(`SELECT bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url
		FROM bills WHERE user_id = ? AND status = 'overdue' ORDER BY due_date DESC LIMIT 1`, userID)
	return scanBillRow(row, userID)
}

func (s *SQLiteStore) AddRepayment(r models.Repayment) error {
	_, err := s.db.Exec(`INSERT INTO repayments
		(repayment_id, user_id, amount, method, status, payment_date, bill_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RepaymentID, r.UserID, r.Amount, r.Method, r.Status, r.PaymentDate, nilIfEmpty(r.BillID))
	if err != nil {
		slog.Error("SQLiteStore AddRepayment failed", "error", err, "repaymentID", r.RepaymentID)
		return fmt.Errorf("failed to insert repayment %s: %w", r.RepaymentID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRepayments(userID string, limit int) ([]models.Repayment, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT repayment_id, user_id, amount, method, status, payment_date, bill_id
		FROM repayments WHERE user_id = ? ORDER BY payment_date DESC LIMIT ?`, userID, limit)
	if err != nil {
		slog.Error("SQLiteStore ListRepayments query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query repayments for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanRepayments(rows)
}

// AddDelivery inserts a card delivery record.
func (s *SQLiteStore) AddDelivery(d models.CardDelivery) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO card_deliveries
		(tracking_number, user_id, status, address, estimated_delivery, actual_delivery, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.TrackingNumber, d.UserID, string(d.Status), d.Address, d.EstimatedDelivery, d.ActualDelivery, d.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddDelivery failed", "error", err, "trackingNumber", d.TrackingNumber)
		return fmt.Errorf("failed to insert delivery %s: %w", d.TrackingNumber, err)
	}
	return nil
}

func (s *SQLiteStore) GetLatestDelivery(userID string) (*models.CardDelivery, error) {
	row := s.db.QueryRow(`SELECT tracking_number, user_id, status, address, estimated_delivery, actual_delivery, created_at
		FROM card_deliveries WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
	return scanDeliveryRow(row, userID)
}

// AddCollectionCase inserts or replaces a collections record.
func (s *SQLiteStore) AddCollectionCase(c models.CollectionCase) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO collection_cases
		(user_id, overdue_amount, days_overdue, payment_plan_offered, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.OverdueAmount, c.DaysOverdue, c.PaymentPlanOffered, c.Status, c.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddCollectionCase failed", "error", err, "userID", c.UserID)
		return fmt.Errorf("failed to insert collection case for %s: %w", c.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetCollectionCase(userID string) (*models.CollectionCase, error) {
	var c models.CollectionCase
	err := s.db.QueryRow(`SELECT user_id, overdue_amount, days_overdue, payment_plan_offered, status, updated_at
		FROM collection_cases WHERE user_id = ?`, userID).Scan(
		&c.UserID, &c.OverdueAmount, &c.DaysOverdue, &c.PaymentPlanOffered, &c.Status, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetCollectionCase failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query collection case for %s: %w", userID, err)
	}
	return &c, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
