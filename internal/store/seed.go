// Package store provides storage backends for CardAssist.
//
// This file seeds a demo account so the service can be exercised end to end
// without any prior data.
package store

import (
	"log/slog"
	"time"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// seedTarget is the write surface SeedDemoData needs. All concrete stores
// satisfy it.
type seedTarget interface {
	Store
	AddAccount(models.Account) error
	AddBill(models.Bill) error
	AddDelivery(models.CardDelivery) error
	AddCollectionCase(models.CollectionCase) error
}

// SeedDemoData populates the store with the USER001 demo account and its
// transaction, bill, delivery, repayment and collections history. Existing
// USER001 rows are overwritten for upsertable entities; seeding an already
// seeded store may fail on append-only tables, so callers should seed once.
func SeedDemoData(s seedTarget) error {
	slog.Debug("SeedDemoData: seeding demo account", "userID", "USER001")
	now := time.Now()

	account := models.Account{
		UserID:          "USER001",
		Name:            "John Doe",
		Email:           "john.doe@example.com",
		Phone:           "+919876543210",
		CardNumber:      "4532-1234-5678-9010",
		CardStatus:      models.CardStatusActive,
		CreditLimit:     50000,
		AvailableCredit: 35000,
		CreatedAt:       now.AddDate(-1, 0, 0),
	}
	if err := s.AddAccount(account); err != nil {
		return err
	}

	transactions := []models.Transaction{
		{
			TransactionID: "TXN001",
			UserID:        "USER001",
			Amount:        1500,
			Merchant:      "Amazon",
			Category:      "shopping",
			Date:          now.AddDate(0, 0, -2),
			Status:        models.TransactionStatusCompleted,
		},
		{
			TransactionID: "TXN002",
			UserID:        "USER001",
			Amount:        25000,
			Merchant:      "Electronics Store",
			Category:      "electronics",
			Date:          now.AddDate(0, 0, -10),
			Status:        models.TransactionStatusCompleted,
			IsEMI:         true,
			EMITenure:     6,
			EMIAmount:     4166.67,
		},
		{
			TransactionID: "TXN003",
			UserID:        "USER001",
			Amount:        500,
			Merchant:      "Restaurant ABC",
			Category:      "dining",
			Date:          now.AddDate(0, 0, -1),
			Status:        models.TransactionStatusCompleted,
		},
	}
	for _, t := range transactions {
		if err := s.AddTransaction(t); err != nil {
			return err
		}
	}

	bill := models.Bill{
		BillID:      "BILL001",
		UserID:      "USER001",
		BillDate:    now.AddDate(0, 0, -15),
		DueDate:     now.AddDate(0, 0, 5),
		TotalAmount: 27000,
		MinimumDue:  2700,
		PaidAmount:  0,
		Status:      models.BillStatusPending,
	}
	if err := s.AddBill(bill); err != nil {
		return err
	}

	repayment := models.Repayment{
		RepaymentID: "PAY001",
		UserID:      "USER001",
		Amount:      5000,
		Method:      "bank_transfer",
		Status:      "completed",
		PaymentDate: now.AddDate(0, -1, 0),
		BillID:      "BILL001",
	}
	if err := s.AddRepayment(repayment); err != nil {
		return err
	}

	delivered := now.AddDate(0, 0, -30)
	delivery := models.CardDelivery{
		TrackingNumber:    "TRACK123456",
		UserID:            "USER001",
		Status:            models.DeliveryStatusDelivered,
		Address:           "123 Main Street, Mumbai, 400001",
		EstimatedDelivery: delivered,
		ActualDelivery:    &delivered,
		CreatedAt:         now.AddDate(0, 0, -35),
	}
	if err := s.AddDelivery(delivery); err != nil {
		return err
	}

	collection := models.CollectionCase{
		UserID:             "USER001",
		OverdueAmount:      0,
		DaysOverdue:        0,
		PaymentPlanOffered: false,
		Status:             "resolved",
		UpdatedAt:          now,
	}
	if err := s.AddCollectionCase(collection); err != nil {
		return err
	}

	slog.Info("SeedDemoData: demo data seeded", "userID", "USER001")
	return nil
}
