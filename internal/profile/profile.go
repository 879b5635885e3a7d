// Package profile provides applicant profile lookups. Records come from two
// CSV files (users and existing loans) with a seeded fallback, fronted by an
// in-memory cache that reloads after its TTL expires.
package profile

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
)

// Record is one applicant's financial profile.
type Record struct {
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	ExistingLoan    float64 `json:"existing_loan"`
}

// Store loads and caches applicant records.
type Store struct {
	usersFile string
	loansFile string
	cacheTTL  time.Duration
	logger    logger.Logger

	mu       sync.RWMutex
	records  map[string]Record
	loadedAt time.Time
	static   bool
}

func NewStore(cfg config.ProfilesConfig, log logger.Logger) *Store {
	s := &Store{
		usersFile: cfg.UsersFile,
		loansFile: cfg.LoansFile,
		cacheTTL:  time.Duration(cfg.CacheTTL) * time.Second,
		logger:    log.WithFields(map[string]interface{}{"component": "profile"}),
	}
	s.reload()
	return s
}

// NewStaticStore builds a store over fixed records, for tests and local runs.
func NewStaticStore(records ...Record) *Store {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.UserID] = r
	}
	return &Store{records: m, static: true, logger: logger.NewNoOpLogger()}
}

// Get returns the record for userID, refreshing the cache when stale.
func (s *Store) Get(userID string) (Record, error) {
	s.mu.RLock()
	stale := !s.static && time.Since(s.loadedAt) > s.cacheTTL
	rec, ok := s.records[userID]
	s.mu.RUnlock()

	if stale {
		s.reload()
		s.mu.RLock()
		rec, ok = s.records[userID]
		s.mu.RUnlock()
	}
	if !ok {
		return Record{}, commonerrors.NewUserNotFoundError(userID)
	}
	return rec, nil
}

// CacheSize reports how many records are currently cached.
func (s *Store) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) reload() {
	records, err := loadCSV(s.usersFile, s.loansFile)
	if err != nil {
		s.logger.Warn("profile files unavailable, using seed records", map[string]interface{}{
			"usersFile": s.usersFile,
			"error":     err.Error(),
		})
		records = seedRecords()
	}

	s.mu.Lock()
	s.records = records
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

// loadCSV reads users.csv (user_id,name,monthly_income,monthly_expenses) and
// merges loans.csv (user_id,existing_loan,loan_type). A missing loans file is
// tolerated; a missing users file is not.
func loadCSV(usersFile, loansFile string) (map[string]Record, error) {
	uf, err := os.Open(usersFile)
	if err != nil {
		return nil, err
	}
	defer uf.Close()

	records := make(map[string]Record)
	reader := csv.NewReader(uf)
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue // header
		}
		if len(row) < 4 {
			continue
		}
		income, _ := strconv.ParseFloat(row[2], 64)
		expenses, _ := strconv.ParseFloat(row[3], 64)
		records[row[0]] = Record{
			UserID:          row[0],
			Name:            row[1],
			MonthlyIncome:   income,
			MonthlyExpenses: expenses,
		}
	}

	lf, err := os.Open(loansFile)
	if err != nil {
		return records, nil
	}
	defer lf.Close()

	reader = csv.NewReader(lf)
	first = true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if first {
			first = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		if rec, ok := records[row[0]]; ok {
			rec.ExistingLoan, _ = strconv.ParseFloat(row[1], 64)
			records[row[0]] = rec
		}
	}

	return records, nil
}

func seedRecords() map[string]Record {
	return map[string]Record{
		"USR001": {UserID: "USR001", Name: "John Doe", MonthlyIncome: 8000, MonthlyExpenses: 3000, ExistingLoan: 20000},
		"USR002": {UserID: "USR002", Name: "Jane Smith", MonthlyIncome: 12000, MonthlyExpenses: 4000, ExistingLoan: 50000},
		"USR003": {UserID: "USR003", Name: "Bob Johnson", MonthlyIncome: 6000, MonthlyExpenses: 2500, ExistingLoan: 0},
	}
}
