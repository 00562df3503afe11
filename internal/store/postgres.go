// Package store provides storage backends for CardAssist.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/CardAssist/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// AddAccount inserts or replaces an account record.
func (s *PostgresStore) AddAccount(a models.Account) error {
	_, err := s.db.Exec(`INSERT INTO accounts
		(user_id, name, email, phone, card_number, card_status, credit_limit, available_credit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			card_number = EXCLUDED.card_number, card_status = EXCLUDED.card_status,
			credit_limit = EXCLUDED.credit_limit, available_credit = EXCLUDED.available_credit`,
		a.UserID, a.Name, a.Email, a.Phone, a.CardNumber, string(a.CardStatus), a.CreditLimit, a.AvailableCredit, a.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddAccount failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert account %s: %w", a.UserID, err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(userID string) (*models.Account, error) {
	var a models.Account
	var status string
	err := s.db.QueryRow(`SELECT user_id, name, email, phone, card_number, card_status, credit_limit, available_credit, created_at
		FROM accounts WHERE user_id = $1`, userID).Scan(
		&a.UserID, &a.Name, &a.Email, &a.Phone, &a.CardNumber, &status, &a.CreditLimit, &a.AvailableCredit, &a.CreatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetAccount not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetAccount failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query account %s: %w", userID, err)
	}
	a.CardStatus = models.CardStatus(status)
	return &a, nil
}

func (s *PostgresStore) UpdateCardStatus(userID string, status models.CardStatus) error {
	_, err := s.db.Exec(`UPDATE accounts SET card_status = $1 WHERE user_id = $2`, string(status), userID)
	if err != nil {
		slog.Error("PostgresStore UpdateCardStatus failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to update card status for %s: %w", userID, err)
	}
	slog.Debug("PostgresStore UpdateCardStatus succeeded", "userID", userID, "status", status)
	return nil
}

func (s *PostgresStore) UpdateAvailableCredit(userID string, available float64) error {
	_, err := s.db.Exec(`UPDATE accounts SET available_credit = $1 WHERE user_id = $2`, available, userID)
	if err != nil {
		slog.Error("PostgresStore UpdateAvailableCredit failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to update available credit for %s: %w", userID, err)
	}
	slog.Debug("PostgresStore UpdateAvailableCredit succeeded", "userID", userID, "available", available)
	return nil
}

func (s *PostgresStore) AddTransaction(t models.Transaction) error {
	_, err := s.db.Exec(`INSERT INTO transactions
		(transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.TransactionID, t.UserID, t.Amount, t.Merchant, t.Category, t.Date, string(t.Status), t.IsEMI,
		nilIfZeroInt(t.EMITenure), nilIfZeroFloat(t.EMIAmount))
	if err != nil {
		slog.Error("PostgresStore AddTransaction failed", "error", err, "transactionID", t.TransactionID)
		return fmt.Errorf("failed to insert transaction %s: %w", t.TransactionID, err)
	}
	slog.Debug("PostgresStore AddTransaction succeeded", "transactionID", t.TransactionID, "userID", t.UserID)
	return nil
}

func (s *PostgresStore) ListTransactions(userID string, limit int) ([]models.Transaction, error) {
	query := `SELECT transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount
		FROM transactions WHERE user_id = $1 ORDER BY date DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT $2`, userID, limit)
	} else {
		rows, err = s.db.Query(query, userID)
	}
	if err != nil {
		slog.Error("PostgresStore ListTransactions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query transactions for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PostgresStore) ListEMITransactions(userID string) ([]models.Transaction, error) {
	rows, err := s.db.Query(`SELECT transaction_id, user_id, amount, merchant, category, date, status, is_emi, emi_tenure, emi_amount
		FROM transactions WHERE user_id = $1 AND is_emi = TRUE ORDER BY date DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListEMITransactions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query EMI transactions for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// AddBill inserts a bill record.
func (s *PostgresStore) AddBill(b models.Bill) error {
	_, err := s.db.Exec(`INSERT INTO bills
		(bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (bill_id) DO UPDATE SET
			paid_amount = EXCLUDED.paid_amount, status = EXCLUDED.status`,
		b.BillID, b.UserID, b.BillDate, b.DueDate, b.TotalAmount, b.MinimumDue, b.PaidAmount, string(b.Status), nilIfEmpty(b.StatementURL))
	if err != nil {
		slog.Error("PostgresStore AddBill failed", "error", err, "billID", b.BillID)
		return fmt.Errorf("failed to insert bill %s: %w", b.BillID, err)
	}
	return nil
}

func (s *PostgresStore) GetLatestBill(userID string) (*models.Bill, error) {
	row := s.db.QueryRow(`SELECT bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url
		FROM bills WHERE user_id = $1 ORDER BY bill_date DESC LIMIT 1`, userID)
	return scanBillRow(row, userID)
}

func (s *PostgresStore) GetOverdueBill(userID string) (*models.Bill, error) {
	row := s.db.QueryRow(`SELECT bill_id, user_id, bill_date, due_date, total_amount, minimum_due, paid_amount, status, statement_url
		FROM bills WHERE user_id = $1 AND status = 'overdue' ORDER BY due_date DESC LIMIT 1`, userID)
	return scanBillRow(row, userID)
}

func (s *PostgresStore) AddRepayment(r models.Repayment) error {
	_, err := s.db.Exec(`INSERT INTO repayments
		(repayment_id, user_id, amount, method, status, payment_date, bill_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.RepaymentID, r.UserID, r.Amount, r.Method, r.Status, r.PaymentDate, nilIfEmpty(r.BillID))
	if err != nil {
		slog.Error("PostgresStore AddRepayment failed", "error", err, "repaymentID", r.RepaymentID)
		return fmt.Errorf("failed to insert repayment %s: %w", r.RepaymentID, err)
	}
	return nil
}

func (s *PostgresStore) ListRepayments(userID string, limit int) ([]models.Repayment, error) {
	query := `SELECT repayment_id, user_id, amount, method, status, payment_date, bill_id
		FROM repayments WHERE user_id = $1 ORDER BY payment_date DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT $2`, userID, limit)
	} else {
		rows, err = s.db.Query(query, userID)
	}
	if err != nil {
		slog.Error("PostgresStore ListRepayments query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query repayments for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanRepayments(rows)
}

// AddDelivery inserts a card delivery record.
func (s *PostgresStore) AddDelivery(d models.CardDelivery) error {
	_, err := s.db.Exec(`INSERT INTO card_deliveries
		(tracking_number, user_id, status, address, estimated_delivery, actual_delivery, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tracking_number) DO UPDATE SET
			status = EXCLUDED.status, address = EXCLUDED.address, actual_delivery = EXCLUDED.actual_delivery`,
		d.TrackingNumber, d.UserID, string(d.Status), d.Address, d.EstimatedDelivery, d.ActualDelivery, d.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddDelivery failed", "error", err, "trackingNumber", d.TrackingNumber)
		return fmt.Errorf("failed to insert delivery %s: %w", d.TrackingNumber, err)
	}
	return nil
}

func (s *PostgresStore) GetLatestDelivery(userID string) (*models.CardDelivery, error) {
	row := s.db.QueryRow(`SELECT tracking_number, user_id, status, address, estimated_delivery, actual_delivery, created_at
		FROM card_deliveries WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	return scanDeliveryRow(row, userID)
}

// AddCollectionCase inserts or replaces a collections record.
func (s *PostgresStore) AddCollectionCase(c models.CollectionCase) error {
	_, err := s.db.Exec(`INSERT INTO collection_cases
		(user_id, overdue_amount, days_overdue, payment_plan_offered, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			overdue_amount = EXCLUDED.overdue_amount, days_overdue = EXCLUDED.days_overdue,
			payment_plan_offered = EXCLUDED.payment_plan_offered, status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		c.UserID, c.OverdueAmount, c.DaysOverdue, c.PaymentPlanOffered, c.Status, c.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore AddCollectionCase failed", "error", err, "userID", c.UserID)
		return fmt.Errorf("failed to insert collection case for %s: %w", c.UserID, err)
	}
	return nil
}

func (s *PostgresStore) GetCollectionCase(userID string) (*models.CollectionCase, error) {
	var c models.CollectionCase
	err := s.db.QueryRow(`SELECT user_id, overdue_amount, days_overdue, payment_plan_offered, status, updated_at
		FROM collection_cases WHERE user_id = $1`, userID).Scan(
		&c.UserID, &c.OverdueAmount, &c.DaysOverdue, &c.PaymentPlanOffered, &c.Status, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetCollectionCase failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query collection case for %s: %w", userID, err)
	}
	return &c, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
