// Package repository provides persistence for the entities touched by a transaction import.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// TransactionType is the direction of a transaction. Categories carry one too.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// AccountType classifies an account
type AccountType string

const (
	AccountTypeBank AccountType = "BANK"
	AccountTypeCash AccountType = "CASH"
)

// User is a member of a household. FamilyID is nil for a user without a family.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	FamilyID  *uuid.UUID
	CreatedAt time.Time
}

// DisplayName returns the name, or the email when the user has no name.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Household returns the filter selecting every user sharing this user's household.
func (u User) Household() HouseholdFilter {
	familyID := u.ID
	if u.FamilyID != nil {
		familyID = *u.FamilyID
	}
	return HouseholdFilter{UserID: u.ID, FamilyID: familyID}
}

// Category is a global transaction category
type Category struct {
	ID        uuid.UUID
	Name      string
	Type      TransactionType
	CreatedAt time.Time
}

// Account is a money container owned by one user
type Account struct {
	ID        uuid.UUID
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	UserID    uuid.UUID
	CreatedAt time.Time
}

// HouseholdFilter selects users whose id is UserID or whose family_id is FamilyID,
// and everything those users own.
type HouseholdFilter struct {
	UserID   uuid.UUID
	FamilyID uuid.UUID
}

// NewTransaction is a fully resolved row ready to be stored.
type NewTransaction struct {
	Date        time.Time
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	CategoryID  *uuid.UUID
	AccountID   uuid.UUID
	UserID      uuid.UUID
}

// TransactionView is a stored transaction joined with the names it references.
type TransactionView struct {
	ID           uuid.UUID
	Date         time.Time
	Type         TransactionType
	Amount       decimal.Decimal
	CurrencyCode string
	Description  string
	CategoryName string
	AccountName  string
	UserName     string
}

// Gateway is the persistence boundary used by the import pipeline.
type Gateway interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	FindCategories(ctx context.Context) ([]Category, error)
	FindAccounts(ctx context.Context, household HouseholdFilter) ([]Account, error)
	FindUsers(ctx context.Context, household HouseholdFilter) ([]User, error)
	CreateCategory(ctx context.Context, name string, kind TransactionType) (*Category, error)
	CreateAccount(ctx context.Context, name string, kind AccountType, openingBalance decimal.Decimal, ownerID uuid.UUID) (*Account, error)
	CreateTransaction(ctx context.Context, tx NewTransaction) error
	ListTransactions(ctx context.Context, household HouseholdFilter, from, to time.Time) ([]TransactionView, error)
}

// DBTX is the subset of pgxpool.Pool used by the gateway, so tests can pass a pgxmock pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
