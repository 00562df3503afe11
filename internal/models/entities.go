// Package models defines the core data structures for CardAssist.
//
// This file holds the account-side entities read and written through the store.
package models

import "time"

// CardStatus represents the lifecycle state of a credit card.
type CardStatus string

const (
	// CardStatusActive indicates the card can transact normally.
	CardStatusActive CardStatus = "active"
	// CardStatusBlocked indicates all transactions are refused.
	CardStatusBlocked CardStatus = "blocked"
	// CardStatusExpired indicates the card has passed its expiry date.
	CardStatusExpired CardStatus = "expired"
)

// IsValidCardStatus checks if the given card status is supported.
func IsValidCardStatus(s CardStatus) bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	default:
		return false
	}
}

// Account holds a cardholder's profile and credit state. CardStatus and
// AvailableCredit are mutated only through the consent gate after explicit
// approval.
type Account struct {
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	CardNumber      string     `json:"card_number"`
	CardStatus      CardStatus `json:"card_status"`
	CreditLimit     float64    `json:"credit_limit"`
	AvailableCredit float64    `json:"available_credit"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TransactionStatus represents the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusDisputed  TransactionStatus = "disputed"
)

// Transaction is a single card transaction, optionally converted to EMI.
type Transaction struct {
	TransactionID string            `json:"transaction_id"`
	UserID        string            `json:"user_id"`
	Amount        float64           `json:"amount"`
	Merchant      string            `json:"merchant"`
	Category      string            `json:"category"` // groceries, dining, travel, etc.
	Date          time.Time         `json:"date"`
	Status        TransactionStatus `json:"status"`
	IsEMI         bool              `json:"is_emi"`
	EMITenure     int               `json:"emi_tenure,omitempty"` // months
	EMIAmount     float64           `json:"emi_amount,omitempty"`
}

// BillStatus represents the payment state of a bill.
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusPaid    BillStatus = "paid"
	BillStatusOverdue BillStatus = "overdue"
)

// Bill is a monthly statement with payment tracking.
type Bill struct {
	BillID       string     `json:"bill_id"`
	UserID       string     `json:"user_id"`
	BillDate     time.Time  `json:"bill_date"`
	DueDate      time.Time  `json:"due_date"`
	TotalAmount  float64    `json:"total_amount"`
	MinimumDue   float64    `json:"minimum_due"`
	PaidAmount   float64    `json:"paid_amount"`
	Status       BillStatus `json:"status"`
	StatementURL string     `json:"statement_url,omitempty"`
}

// Outstanding returns the unpaid portion of the bill.
func (b *Bill) Outstanding() float64 {
	return b.TotalAmount - b.PaidAmount
}

// DeliveryStatus represents the shipping state of a card delivery.
type DeliveryStatus string

const (
	DeliveryStatusProcessing DeliveryStatus = "processing"
	DeliveryStatusShipped    DeliveryStatus = "shipped"
	DeliveryStatusInTransit  DeliveryStatus = "in_transit"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
)

// CardDelivery tracks a physical card shipment.
type CardDelivery struct {
	TrackingNumber    string         `json:"tracking_number"`
	UserID            string         `json:"user_id"`
	Status            DeliveryStatus `json:"status"`
	Address           string         `json:"address"`
	EstimatedDelivery time.Time      `json:"estimated_delivery"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Repayment is a payment made against a bill.
type Repayment struct {
	RepaymentID string    `json:"repayment_id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"` // bank_transfer, upi, debit_card, net_banking
	Status      string    `json:"status"` // pending, processing, completed, failed
	PaymentDate time.Time `json:"payment_date"`
	BillID      string    `json:"bill_id,omitempty"`
}

// CollectionCase tracks an overdue account in collections.
type CollectionCase struct {
	UserID             string    `json:"user_id"`
	OverdueAmount      float64   `json:"overdue_amount"`
	DaysOverdue        int       `json:"days_overdue"`
	PaymentPlanOffered bool      `json:"payment_plan_offered"`
	Status             string    `json:"status"` // active, resolved, escalated
	UpdatedAt          time.Time `json:"updated_at"`
}
