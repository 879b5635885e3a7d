package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStoreLoadsCSVFiles(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.csv",
		"user_id,name,monthly_income,monthly_expenses\n"+
			"USR001,John Doe,8000,3000\n"+
			"USR002,Jane Smith,12000,4000\n")
	loans := writeFile(t, dir, "loans.csv",
		"user_id,existing_loan,loan_type\n"+
			"USR001,20000,Personal Loan\n")

	store := NewStore(config.ProfilesConfig{
		UsersFile: users,
		LoansFile: loans,
		CacheTTL:  300,
	}, logger.NewTestLogger(t))

	rec, err := store.Get("USR001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", rec.Name)
	assert.Equal(t, 8000.0, rec.MonthlyIncome)
	assert.Equal(t, 3000.0, rec.MonthlyExpenses)
	assert.Equal(t, 20000.0, rec.ExistingLoan)

	// No loans row means no existing debt.
	rec, err = store.Get("USR002")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.ExistingLoan)

	assert.Equal(t, 2, store.CacheSize())
}

func TestStoreMissingLoansFileTolerated(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.csv",
		"user_id,name,monthly_income,monthly_expenses\n"+
			"USR001,John Doe,8000,3000\n")

	store := NewStore(config.ProfilesConfig{
		UsersFile: users,
		LoansFile: filepath.Join(dir, "absent.csv"),
		CacheTTL:  300,
	}, logger.NewTestLogger(t))

	rec, err := store.Get("USR001")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.ExistingLoan)
}

func TestStoreFallsBackToSeeds(t *testing.T) {
	store := NewStore(config.ProfilesConfig{
		UsersFile: "does/not/exist.csv",
		LoansFile: "does/not/exist.csv",
		CacheTTL:  300,
	}, logger.NewTestLogger(t))

	rec, err := store.Get("USR001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", rec.Name)

	rec, err = store.Get("USR003")
	require.NoError(t, err)
	assert.Equal(t, "Bob Johnson", rec.Name)
	assert.Equal(t, 0.0, rec.ExistingLoan)
}

func TestStoreUnknownUser(t *testing.T) {
	store := NewStaticStore(Record{UserID: "USR001", Name: "John Doe"})

	_, err := store.Get("USR999")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeUserNotFound))
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore(
		Record{UserID: "A", Name: "Alpha", MonthlyIncome: 1000},
		Record{UserID: "B", Name: "Beta", MonthlyIncome: 2000},
	)

	rec, err := store.Get("B")
	require.NoError(t, err)
	assert.Equal(t, "Beta", rec.Name)
	assert.Equal(t, 2, store.CacheSize())
}
