// Package store provides storage backends for CardAssist.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backends selected by DSN. All time-series accessors return rows
// in most-recent-first order.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// Store is the persistence interface consumed by agents and the executor.
// Read accessors return (nil, nil) when no record exists for the user.
type Store interface {
	GetAccount(userID string) (*models.Account, error)
	UpdateCardStatus(userID string, status models.CardStatus) error
	UpdateAvailableCredit(userID string, available float64) error

	AddTransaction(t models.Transaction) error
	ListTransactions(userID string, limit int) ([]models.Transaction, error)
	ListEMITransactions(userID string) ([]models.Transaction, error)

	GetLatestBill(userID string) (*models.Bill, error)
	GetOverdueBill(userID string) (*models.Bill, error)

	AddRepayment(r models.Repayment) error
	ListRepayments(userID string, limit int) ([]models.Repayment, error)

	GetLatestDelivery(userID string) (*models.CardDelivery, error)
	GetCollectionCase(userID string) (*models.CollectionCase, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN configures a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN configures a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType determines the database type from a DSN string.
// Returns "postgres" for PostgreSQL connection strings, "sqlite" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded in-memory Store used in tests and when no
// DSN is configured.
type InMemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account
	transactions map[string][]models.Transaction
	bills        map[string][]models.Bill
	repayments   map[string][]models.Repayment
	deliveries   map[string][]models.CardDelivery
	collections  map[string]models.CollectionCase
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string][]models.Transaction),
		bills:        make(map[string][]models.Bill),
		repayments:   make(map[string][]models.Repayment),
		deliveries:   make(map[string][]models.CardDelivery),
		collections:  make(map[string]models.CollectionCase),
	}
}

// AddAccount inserts or replaces an account record.
func (s *InMemoryStore) AddAccount(a models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.UserID] = a
	return nil
}

func (s *InMemoryStore) GetAccount(userID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *InMemoryStore) UpdateCardStatus(userID string, status models.CardStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	a.CardStatus = status
	s.accounts[userID] = a
	return nil
}

func (s *InMemoryStore) UpdateAvailableCredit(userID string, available float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	a.AvailableCredit = available
	s.accounts[userID] = a
	return nil
}

func (s *InMemoryStore) AddTransaction(t models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.UserID] = append(s.transactions[t.UserID], t)
	return nil
}

func (s *InMemoryStore) ListTransactions(userID string, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txns := append([]models.Transaction(nil), s.transactions[userID]...)
	sort.Slice(txns, func(i, j int) bool { return txns[i].Date.After(txns[j].Date) })
	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

func (s *InMemoryStore) ListEMITransactions(userID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var emis []models.Transaction
	for _, t := range s.transactions[userID] {
		if t.IsEMI {
			emis = append(emis, t)
		}
	}
	sort.Slice(emis, func(i, j int) bool { return emis[i].Date.After(emis[j].Date) })
	return emis, nil
}

// AddBill inserts a bill record.
func (s *InMemoryStore) AddBill(b models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[b.UserID] = append(s.bills[b.UserID], b)
	return nil
}

func (s *InMemoryStore) GetLatestBill(userID string) (*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bills := s.bills[userID]
	if len(bills) == 0 {
		return nil, nil
	}
	latest := bills[0]
	for _, b := range bills[1:] {
		if b.BillDate.After(latest.BillDate) {
			latest = b
		}
	}
	return &latest, nil
}

func (s *InMemoryStore) GetOverdueBill(userID string) (*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var overdue *models.Bill
	for _, b := range s.bills[userID] {
		if b.Status != models.BillStatusOverdue {
			continue
		}
		if overdue == nil || b.DueDate.After(overdue.DueDate) {
			bill := b
			overdue = &bill
		}
	}
	return overdue, nil
}

func (s *InMemoryStore) AddRepayment(r models.Repayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repayments[r.UserID] = append(s.repayments[r.UserID], r)
	return nil
}

func (s *InMemoryStore) ListRepayments(userID string, limit int) ([]models.Repayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reps := append([]models.Repayment(nil), s.repayments[userID]...)
	sort.Slice(reps, func(i, j int) bool { return reps[i].PaymentDate.After(reps[j].PaymentDate) })
	if limit > 0 && len(reps) > limit {
		reps = reps[:limit]
	}
	return reps, nil
}

// AddDelivery inserts a card delivery record.
func (s *InMemoryStore) AddDelivery(d models.CardDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.UserID] = append(s.deliveries[d.UserID], d)
	return nil
}

func (s *InMemoryStore) GetLatestDelivery(userID string) (*models.CardDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deliveries := s.deliveries[userID]
	if len(deliveries) == 0 {
		return nil, nil
	}
	latest := deliveries[0]
	for _, d := range deliveries[1:] {
		if d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	return &latest, nil
}

// AddCollectionCase inserts or replaces a collections record.
func (s *InMemoryStore) AddCollectionCase(c models.CollectionCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.UserID] = c
	return nil
}

func (s *InMemoryStore) GetCollectionCase(userID string) (*models.CollectionCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
