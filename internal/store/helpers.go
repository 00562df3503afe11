package store

import (
	"database/sql"
	"fmt"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nilIfZeroInt returns nil for zero values, for nullable integer columns.
func nilIfZeroInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// nilIfZeroFloat returns nil for zero values, for nullable numeric columns.
func nilIfZeroFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}

// scanTransactions scans all transactions from sql.Rows.
func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var status string
		var tenure sql.NullInt64
		var emiAmount sql.NullFloat64
		if err := rows.Scan(&t.TransactionID, &t.UserID, &t.Amount, &t.Merchant, &t.Category, &t.Date, &status, &t.IsEMI, &tenure, &emiAmount); err != nil {
			return nil, fmt.Errorf("scan transaction failed: %w", err)
		}
		t.Status = models.TransactionStatus(status)
		t.EMITenure = int(tenure.Int64)
		t.EMIAmount = emiAmount.Float64
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows failed: %w", err)
	}
	return txns, nil
}

// scanBillRow scans a Bill from a single sql.Row, mapping sql.ErrNoRows to (nil, nil).
func scanBillRow(row *sql.Row, userID string) (*models.Bill, error) {
	var b models.Bill
	var status string
	var stmtURL sql.NullString
	err := row.Scan(&b.BillID, &b.UserID, &b.BillDate, &b.DueDate, &b.TotalAmount, &b.MinimumDue, &b.PaidAmount, &status, &stmtURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan bill for %s failed: %w", userID, err)
	}
	b.Status = models.BillStatus(status)
	b.StatementURL = stmtURL.String
	return &b, nil
}

// scanRepayments scans all repayments from sql.Rows.
func scanRepayments(rows *sql.Rows) ([]models.Repayment, error) {
	var reps []models.Repayment
	for rows.Next() {
		var r models.Repayment
		var billID sql.NullString
		if err := rows.Scan(&r.RepaymentID, &r.UserID, &r.Amount, &r.Method, &r.Status, &r.PaymentDate, &billID); err != nil {
			return nil, fmt.Errorf("scan repayment failed: %w", err)
		}
		r.BillID = billID.String
		reps = append(reps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repayment rows failed: %w", err)
	}
	return reps, nil
}

// scanDeliveryRow scans a CardDelivery from a single sql.Row, mapping sql.ErrNoRows to (nil, nil).
func scanDeliveryRow(row *sql.Row, userID string) (*models.CardDelivery, error) {
	var d models.CardDelivery
	var status string
	var actual sql.NullTime
	err := row.Scan(&d.TrackingNumber, &d.UserID, &status, &d.Address, &d.EstimatedDelivery, &actual, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan delivery for %s failed: %w", userID, err)
	}
	d.Status = models.DeliveryStatus(status)
	if actual.Valid {
		d.ActualDelivery = &actual.Time
	}
	return &d, nil
}
